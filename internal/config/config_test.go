package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.Mode != "mock" {
		t.Fatalf("expected default engine mode mock, got %q", cfg.Engine.Mode)
	}
	if cfg.Pipeline.RetryMaxAttempts != 3 {
		t.Fatalf("expected 3 retry attempts, got %d", cfg.Pipeline.RetryMaxAttempts)
	}
	if cfg.Roles.Host.Voice == "" {
		t.Fatal("expected a default host voice")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PODFORGE_ENGINE_MODE", "openai")
	t.Setenv("PODFORGE_ENGINE_API_KEY", "sk-test")
	t.Setenv("PODFORGE_ENGINE_FORMAT", "opus")
	t.Setenv("PODFORGE_PIPELINE_MAX_BATCH_SECONDS", "60")
	t.Setenv("PODFORGE_PIPELINE_RETRY_BASE_DELAY_MS", "100")
	t.Setenv("PODFORGE_ROLES_HOST_NAME", "Kevin")
	t.Setenv("PODFORGE_ROLES_HOST_VOICE", "echo")
	t.Setenv("PODFORGE_STORE_OUTPUT_DIR", "/tmp/podcasts")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.Mode != "openai" || cfg.Engine.APIKey != "sk-test" {
		t.Fatalf("engine overrides not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.Format != "opus" {
		t.Fatalf("expected format opus, got %q", cfg.Engine.Format)
	}
	if cfg.Pipeline.MaxBatchSeconds != 60 {
		t.Fatalf("expected batch ceiling override, got %d", cfg.Pipeline.MaxBatchSeconds)
	}
	if cfg.Pipeline.RetryBaseDelayMS != 100 {
		t.Fatalf("expected retry delay override, got %d", cfg.Pipeline.RetryBaseDelayMS)
	}
	if cfg.Roles.Host.Name != "Kevin" || cfg.Roles.Host.Voice != "echo" {
		t.Fatalf("role overrides not applied: %+v", cfg.Roles.Host)
	}
	if cfg.Store.OutputDir != "/tmp/podcasts" {
		t.Fatalf("store override not applied: %q", cfg.Store.OutputDir)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "podforge.yaml")
	body := `
engine:
  mode: exec
  command: "piper --model en_US"
  format: wav
roles:
  host:
    name: Ada
    voice: nova
    style: "warm, unhurried"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.Mode != "exec" || cfg.Engine.Command == "" {
		t.Fatalf("engine section not parsed: %+v", cfg.Engine)
	}
	if cfg.Roles.Host.Style != "warm, unhurried" {
		t.Fatalf("role style not parsed: %q", cfg.Roles.Host.Style)
	}
}

func TestTelemetryLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		tc := TelemetryConfig{LogLevel: in}
		if got := tc.Level(); got != want {
			t.Errorf("Level(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown engine mode", func(c *Config) { c.Engine.Mode = "tape-deck" }},
		{"exec without command", func(c *Config) { c.Engine.Mode = "exec"; c.Engine.Format = "wav" }},
		{"openai without key", func(c *Config) { c.Engine.Mode = "openai" }},
		{"pcm backend non-wav format", func(c *Config) {
			c.Engine.Mode = "gemini"
			c.Engine.APIKey = "k"
			c.Engine.Format = "mp3"
		}},
		{"bad format", func(c *Config) { c.Engine.Format = "ogg-vorbis" }},
		{"zero batch ceiling", func(c *Config) { c.Pipeline.MaxBatchSeconds = 0 }},
		{"missing output dir", func(c *Config) { c.Store.OutputDir = "" }},
		{"extra without voice", func(c *Config) {
			c.Roles.Extras = []RoleConfig{{Name: "Expert"}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
