package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kevinbrodzinski/nightlife/itinerary"
	"github.com/kevinbrodzinski/nightlife/model"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Planner.MaxStops != 3 {
		t.Errorf("expected max stops 3, got %d", cfg.Planner.MaxStops)
	}
	if cfg.Planner.TravelGap != 30*time.Minute {
		t.Errorf("expected travel gap 30m, got %v", cfg.Planner.TravelGap)
	}
	if cfg.Concierge.Persona != "Nova" {
		t.Errorf("expected persona Nova, got %s", cfg.Concierge.Persona)
	}
	if cfg.Concierge.HistoryLimit != 20 {
		t.Errorf("expected history limit 20, got %d", cfg.Concierge.HistoryLimit)
	}
	if cfg.Concierge.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", cfg.Concierge.Timeout)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("expected file storage, got %s", cfg.Storage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"zero max stops", func(c *Config) { c.Planner.MaxStops = 0 }, true},
		{"negative gap", func(c *Config) { c.Planner.TravelGap = -time.Minute }, true},
		{"zero default duration", func(c *Config) { c.Planner.DefaultDuration = 0 }, true},
		{"missing persona", func(c *Config) { c.Concierge.Persona = "" }, true},
		{"temperature too high", func(c *Config) { c.Concierge.Temperature = 2.5 }, true},
		{"zero timeout", func(c *Config) { c.Concierge.Timeout = 0 }, true},
		{"unknown catalog source", func(c *Config) { c.Catalog.Source = "ftp" }, true},
		{"file source without paths", func(c *Config) { c.Catalog.Paths = nil }, true},
		{"llm source without paths", func(c *Config) { c.Catalog.Source = "llm"; c.Catalog.Paths = nil }, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, true},
		{"file backend without dir", func(c *Config) { c.Storage.Dir = "" }, true},
		{"memory backend without dir", func(c *Config) { c.Storage.Backend = "memory"; c.Storage.Dir = "" }, false},
		{"redis without addr", func(c *Config) { c.Storage.Backend = "redis" }, true},
		{"redis with addr", func(c *Config) { c.Storage.Backend = "redis"; c.Storage.RedisAddr = "localhost:6379" }, false},
		{"malformed redis addr", func(c *Config) { c.Storage.RedisAddr = "no port here" }, true},
		{"nats with url", func(c *Config) { c.Storage.Backend = "nats"; c.Storage.NATSURL = "nats://localhost:4222" }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{
			name: "capability with unknown endpoint",
			modify: func(c *Config) {
				c.Models = &model.RegistryConfig{
					Capabilities: map[string]*model.CapabilityConfig{
						"concierge": {Preferred: []string{"nowhere"}},
					},
				}
			},
			wantErr: true,
		},
		{
			name: "endpoint without model",
			modify: func(c *Config) {
				c.Models = &model.RegistryConfig{
					Endpoints: map[string]*model.EndpointConfig{"local": {Provider: "ollama"}},
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, `
planner:
  max_stops: 4
  travel_gap: 15m
concierge:
  persona: Luna
catalog:
  source: llm
  city: Chicago
storage:
  backend: redis
  redis_addr: "cache:6379"
models:
  endpoints:
    local:
      provider: ollama
      url: http://localhost:11434/v1
      model: llama3.2
  default: local
`)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Planner.MaxStops != 4 {
		t.Errorf("expected max stops 4, got %d", cfg.Planner.MaxStops)
	}
	if cfg.Planner.TravelGap != 15*time.Minute {
		t.Errorf("expected travel gap 15m, got %v", cfg.Planner.TravelGap)
	}
	// Keys the file leaves out keep their defaults.
	if cfg.Planner.DefaultDuration != itinerary.DefaultDuration {
		t.Errorf("expected default duration to remain, got %v", cfg.Planner.DefaultDuration)
	}
	if cfg.Concierge.HistoryLimit != 20 {
		t.Errorf("expected history limit to remain 20, got %d", cfg.Concierge.HistoryLimit)
	}
	if cfg.Concierge.Persona != "Luna" {
		t.Errorf("expected persona Luna, got %s", cfg.Concierge.Persona)
	}
	if cfg.Catalog.City != "Chicago" || cfg.Catalog.Source != "llm" {
		t.Errorf("unexpected catalog section %+v", cfg.Catalog)
	}
	if cfg.Storage.RedisAddr != "cache:6379" {
		t.Errorf("expected redis addr cache:6379, got %s", cfg.Storage.RedisAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	ep := reg.GetEndpoint("local")
	if ep == nil || ep.Model != "llama3.2" {
		t.Errorf("expected configured endpoint, got %+v", ep)
	}
	if reg.GetEndpoint("claude-haiku") == nil {
		t.Error("expected built-in endpoints to survive the overlay")
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, bad, "planner: [not, a, map")
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoaderLayers(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
planner:
  max_stops: 4
concierge:
  persona: Luna
`)

	project := t.TempDir()
	writeFile(t, filepath.Join(project, ProjectConfigFile), `
planner:
  max_stops: 2
storage:
  backend: memory
`)
	nested := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil,
		WithHomeDir(home),
		WithWorkDir(nested),
		WithEnv(envMap(map[string]string{
			"NIGHTLIFE_LOG_LEVEL":     "debug",
			"NIGHTLIFE_CATALOG_PATHS": "a.json, data/**/*.json,",
			"NIGHTLIFE_AGENT_TIMEOUT": "10s",
		})),
	)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Concierge.Persona != "Luna" {
		t.Errorf("expected persona from user config, got %s", cfg.Concierge.Persona)
	}
	if cfg.Planner.MaxStops != 2 {
		t.Errorf("expected project config to win, got %d", cfg.Planner.MaxStops)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected env log level, got %s", cfg.Log.Level)
	}
	if cfg.Concierge.Timeout != 10*time.Second {
		t.Errorf("expected env timeout, got %v", cfg.Concierge.Timeout)
	}
	if len(cfg.Catalog.Paths) != 2 || cfg.Catalog.Paths[1] != "data/**/*.json" {
		t.Errorf("unexpected catalog paths %q", cfg.Catalog.Paths)
	}
}

func TestLoaderNoFiles(t *testing.T) {
	loader := NewLoader(nil, WithHomeDir(t.TempDir()), WithWorkDir(t.TempDir()), WithEnv(envMap(nil)))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Planner.MaxStops != 3 {
		t.Errorf("expected defaults, got max stops %d", cfg.Planner.MaxStops)
	}
}

func TestLoaderErrors(t *testing.T) {
	t.Run("unparseable env", func(t *testing.T) {
		loader := NewLoader(nil, WithHomeDir(t.TempDir()), WithWorkDir(t.TempDir()),
			WithEnv(envMap(map[string]string{"NIGHTLIFE_MAX_STOPS": "lots"})))
		if _, err := loader.Load(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("invalid env value", func(t *testing.T) {
		loader := NewLoader(nil, WithHomeDir(t.TempDir()), WithWorkDir(t.TempDir()),
			WithEnv(envMap(map[string]string{"NIGHTLIFE_STORAGE_BACKEND": "tape"})))
		if _, err := loader.Load(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("broken project file", func(t *testing.T) {
		project := t.TempDir()
		writeFile(t, filepath.Join(project, ProjectConfigFile), "planner: {max_stops: [")
		loader := NewLoader(nil, WithHomeDir(t.TempDir()), WithWorkDir(project), WithEnv(envMap(nil)))
		if _, err := loader.Load(); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	loader := NewLoader(nil, WithHomeDir(home))

	path, err := loader.EnsureUserConfig()
	if err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	if path != filepath.Join(home, UserConfigDir, UserConfigFile) {
		t.Errorf("unexpected path %s", path)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("failed to load created config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("created config should be valid: %v", err)
	}

	// A second call leaves the file alone.
	writeFile(t, path, "concierge:\n  persona: Kept\n")
	if _, err := loader.EnsureUserConfig(); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concierge.Persona != "Kept" {
		t.Errorf("existing config was overwritten")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Concierge.Persona = "Saved"
	cfg.Catalog.CacheTTL = 2 * time.Hour

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Concierge.Persona != "Saved" {
		t.Errorf("expected persona Saved, got %s", loaded.Concierge.Persona)
	}
	if loaded.Catalog.CacheTTL != 2*time.Hour {
		t.Errorf("expected cache ttl 2h, got %v", loaded.Catalog.CacheTTL)
	}
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Planner.MaxStops = 5
	cfg.Storage.Backend = "nats"
	cfg.Storage.NATSURL = "nats://example:4222"

	if got := itinerary.NewBuilder(cfg.BuilderOptions()...).MaxStops(); got != 5 {
		t.Errorf("expected builder max stops 5, got %d", got)
	}
	opts := cfg.StorageOptions()
	if opts.Backend != "nats" || opts.NATSURL != "nats://example:4222" || opts.Bucket != "nightlife" {
		t.Errorf("unexpected storage options %+v", opts)
	}
	if len(cfg.SessionOptions()) != 3 {
		t.Errorf("expected three session options")
	}

	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if len(reg.GetFallbackChain(model.CapabilityConcierge)) == 0 {
		t.Error("expected default concierge chain")
	}
}
