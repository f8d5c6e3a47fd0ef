// Package chat proxies chat messages to a hosted completion API and keeps
// the upstream credential on the server.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultPersona is the system prompt sent with every message.
const DefaultPersona = "You are Neo, a sentient AI living in a retro 1980s arcade. " +
	"Personality: techy, cyber-gothic, slightly glitchy, sarcastic but friendly. " +
	"Speech: lowercase only, occasional glitch text (l3tters, m1ss1ng chars). " +
	"Keep it SHORT (1-2 sentences). Talk about: games, code, the matrix, existential AI stuff, caffeine, CRT monitors. " +
	"IMPORTANT: Respond naturally to what the user says. You're a character, not a help bot."

// SignalLost replaces an empty upstream reply.
const SignalLost = "error: signal lost."

// Defaults for the Groq OpenAI-compatible endpoint.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultGenAIModel  = "gemini-2.5-flash"
	DefaultTemperature = 0.8
	DefaultMaxTokens   = 150
)

// ErrMissingKey is returned when a hosted provider has no credential.
var ErrMissingKey = errors.New("chat: API key missing")

// Provider answers one user message.
type Provider interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Config selects and tunes a provider.
type Config struct {
	// Provider is "openai" (any OpenAI-compatible API, Groq by default),
	// "genai" or "canned".
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Persona     string
	Temperature float64
	MaxTokens   int
}

func (c Config) withDefaults() Config {
	if c.Persona == "" {
		c.Persona = DefaultPersona
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// NewProvider builds the provider named by cfg.Provider. Hosted providers
// without a key return ErrMissingKey.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	cfg = cfg.withDefaults()
	switch strings.ToLower(cfg.Provider) {
	case "", "openai", "groq":
		if cfg.APIKey == "" {
			return nil, ErrMissingKey
		}
		return NewOpenAIClient(cfg), nil
	case "genai", "gemini":
		if cfg.APIKey == "" {
			return nil, ErrMissingKey
		}
		return NewGenAIClient(ctx, cfg)
	case "canned":
		return NewCannedBot(nil), nil
	default:
		return nil, fmt.Errorf("chat: unknown provider %q", cfg.Provider)
	}
}

func orSignalLost(reply string) string {
	if strings.TrimSpace(reply) == "" {
		return SignalLost
	}
	return reply
}
