package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/retrodesk.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	return defaultYAML
}

// Default returns the hardcoded configuration used when the embedded
// document cannot be parsed.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "~/.retrodesk/scores.db",
		},
		Scores: ScoresConfig{
			LocalCache: "~/.retrodesk/local_scores.json",
			TopN:       10,
		},
		Sandbox: SandboxConfig{
			ReadyAttempts: 50,
			ReadyDelay:    100 * time.Millisecond,
		},
		Chat: ChatConfig{
			Provider:    "openai",
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			APIKeyEnv:   "GROQ_API_KEY",
			Temperature: 0.8,
			MaxTokens:   150,
		},
		SSH: SSHConfig{
			Addr:        ":2222",
			HostKey:     "~/.retrodesk/ssh_host_ed25519",
			IdleTimeout: 10 * time.Minute,
		},
	}
}
