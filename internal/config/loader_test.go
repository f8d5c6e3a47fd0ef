package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal(DefaultYAML(), &cfg); err != nil {
		t.Fatalf("embedded YAML does not parse: %v", err)
	}
	def := Default()
	if cfg.Server.Addr != def.Server.Addr {
		t.Errorf("server.addr = %q, expected %q", cfg.Server.Addr, def.Server.Addr)
	}
	if cfg.Sandbox.ReadyAttempts != 50 || cfg.Sandbox.ReadyDelay != 100*time.Millisecond {
		t.Errorf("sandbox = %+v", cfg.Sandbox)
	}
	if cfg.Chat.Temperature != 0.8 || cfg.Chat.MaxTokens != 150 {
		t.Errorf("chat = %+v", cfg.Chat)
	}
	if cfg.SSH.IdleTimeout != 10*time.Minute {
		t.Errorf("ssh.idle_timeout = %v", cfg.SSH.IdleTimeout)
	}
}

func TestLoadCustomPathLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := "server:\n  addr: \":9999\"\nstorage:\n  driver: postgres\n  dsn: \"host=db\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
	if cfg.Storage.Target() != "host=db" {
		t.Errorf("storage target = %q, expected the DSN", cfg.Storage.Target())
	}
	if cfg.Scores.TopN != 10 {
		t.Errorf("scores.top_n = %d, expected default 10", cfg.Scores.TopN)
	}
}

func TestLoadCustomPathErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing custom config")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadSearchOrder(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	work := t.TempDir()
	t.Chdir(work)

	if err := os.MkdirAll(filepath.Join(work, "configs"), 0o755); err != nil {
		t.Fatal(err)
	}
	local := "server:\n  addr: \":7000\"\n"
	if err := os.WriteFile(filepath.Join(work, "configs", "retrodesk.yaml"), []byte(local), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("addr = %q, expected local configs file", cfg.Server.Addr)
	}

	if err := os.MkdirAll(filepath.Join(home, ".retrodesk"), 0o755); err != nil {
		t.Fatal(err)
	}
	user := "server:\n  addr: \":6000\"\n"
	if err := os.WriteFile(filepath.Join(home, ".retrodesk", "config.yaml"), []byte(user), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":6000" {
		t.Errorf("addr = %q, expected user config to win", cfg.Server.Addr)
	}
}

func TestChatAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq")
	t.Setenv("GEMINI_API_KEY", "gem")

	cfg := Default()
	if got := cfg.ChatAPIKey(); got != "groq" {
		t.Errorf("openai key = %q", got)
	}

	cfg.Chat.Provider = "genai"
	cfg.Chat.APIKeyEnv = "RETRODESK_UNSET_KEY"
	if got := cfg.ChatAPIKey(); got != "gem" {
		t.Errorf("genai key = %q, expected GEMINI_API_KEY fallback", got)
	}
}
