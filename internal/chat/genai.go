package chat

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIClient answers through Google's Gemini API.
type GenAIClient struct {
	client *genai.Client
	cfg    Config
}

// NewGenAIClient creates a Gemini client for cfg.
func NewGenAIClient(ctx context.Context, cfg Config) (*GenAIClient, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, ErrMissingKey
	}
	if cfg.Model == "" || cfg.Model == DefaultModel {
		cfg.Model = DefaultGenAIModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: create genai client: %w", err)
	}
	return &GenAIClient{client: client, cfg: cfg}, nil
}

// Reply generates one short completion for message.
func (c *GenAIClient) Reply(ctx context.Context, message string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx,
		c.cfg.Model,
		genai.Text(message),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(c.cfg.Persona, genai.RoleUser),
			Temperature:       genai.Ptr(float32(c.cfg.Temperature)),
			MaxOutputTokens:   int32(c.cfg.MaxTokens),
		},
	)
	if err != nil {
		return "", fmt.Errorf("chat: genai generate: %w", err)
	}
	return orSignalLost(resp.Text()), nil
}
