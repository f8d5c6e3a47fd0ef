package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads the application configuration.
// Search order: customPath -> ~/.retrodesk/config.yaml -> ./configs/retrodesk.yaml -> embedded default.
// Every file is layered over the defaults, so partial files are fine.
func Load(customPath string) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		cfg = Default()
	}

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			next := cfg
			if err := yaml.Unmarshal(data, &next); err == nil {
				return next, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "retrodesk.yaml")); err == nil {
		next := cfg
		if err := yaml.Unmarshal(data, &next); err == nil {
			return next, nil
		}
	}

	return cfg, nil
}

// ChatAPIKey returns the chat credential from the configured environment
// variable, falling back to GEMINI_API_KEY for the genai provider.
func (c Config) ChatAPIKey() string {
	if c.Chat.APIKeyEnv != "" {
		if v := os.Getenv(c.Chat.APIKeyEnv); v != "" {
			return v
		}
	}
	if c.Chat.Provider == "genai" || c.Chat.Provider == "gemini" {
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".retrodesk", filename)
}
