// Package config provides YAML-based application configuration with
// embedded defaults.
package config

import "time"

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Scores  ScoresConfig  `yaml:"scores"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Chat    ChatConfig    `yaml:"chat"`
	SSH     SSHConfig     `yaml:"ssh"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// StaticDir is served at / when set.
	StaticDir string `yaml:"static_dir"`
	// ScriptsDir replaces the bundled program sources when set.
	ScriptsDir  string   `yaml:"scripts_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// StorageConfig selects the score store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	Path   string `yaml:"path"`   // sqlite file
	DSN    string `yaml:"dsn"`    // postgres
}

// Target returns the path or DSN for the configured driver.
func (s StorageConfig) Target() string {
	if s.Driver == "postgres" || s.Driver == "postgresql" {
		return s.DSN
	}
	return s.Path
}

// ScoresConfig configures the score service.
type ScoresConfig struct {
	LocalCache string `yaml:"local_cache"`
	TopN       int    `yaml:"top_n"`
}

// SandboxConfig tunes interpreter start-up.
type SandboxConfig struct {
	ReadyAttempts int           `yaml:"ready_attempts"`
	ReadyDelay    time.Duration `yaml:"ready_delay"`
}

// ChatConfig configures the chat provider. The key itself is never stored
// in the file; APIKeyEnv names the environment variable holding it.
type ChatConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Persona     string  `yaml:"persona"`
}

// SSHConfig configures the terminal SSH server.
type SSHConfig struct {
	Addr        string        `yaml:"addr"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}
