// Package config provides configuration loading and management for the
// nightlife planner.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kevinbrodzinski/nightlife/concierge"
	"github.com/kevinbrodzinski/nightlife/itinerary"
	"github.com/kevinbrodzinski/nightlife/model"
	"github.com/kevinbrodzinski/nightlife/storage"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config represents the complete planner configuration
type Config struct {
	Planner   PlannerConfig         `yaml:"planner"`
	Concierge ConciergeConfig       `yaml:"concierge"`
	Catalog   CatalogConfig         `yaml:"catalog"`
	Storage   StorageConfig         `yaml:"storage"`
	Users     UsersConfig           `yaml:"users"`
	Models    *model.RegistryConfig `yaml:"models,omitempty" validate:"omitempty"`
	Log       LogConfig             `yaml:"log"`
}

// PlannerConfig configures itinerary building
type PlannerConfig struct {
	// MaxStops caps both bulk and incremental itineraries (default: 3)
	MaxStops int `yaml:"max_stops" validate:"gte=1,lte=10"`
	// TravelGap is the time between consecutive stops (default: 30m)
	TravelGap time.Duration `yaml:"travel_gap" validate:"gte=0"`
	// DefaultDuration applies to activities without a fixed duration
	DefaultDuration time.Duration `yaml:"default_duration" validate:"gt=0"`
}

// ConciergeConfig configures the chat agent
type ConciergeConfig struct {
	Persona string `yaml:"persona" validate:"required"`
	// HistoryLimit is the number of prior chat entries sent with each message
	HistoryLimit int `yaml:"history_limit" validate:"gte=1"`
	// Timeout bounds one agent HTTP call
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
}

// CatalogConfig selects where venues come from
type CatalogConfig struct {
	// Source is "file" (JSON files matched by Paths) or "llm" (generated)
	Source string `yaml:"source" validate:"oneof=file llm"`
	// Paths are doublestar globs, e.g. "data/**/*.json"
	Paths []string `yaml:"paths"`
	// CacheTTL bounds the in-process copy; 0 keeps it until invalidated
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	// Count and City shape the generated catalog
	Count int    `yaml:"count" validate:"gte=1,lte=100"`
	City  string `yaml:"city" validate:"required"`
	// Watch invalidates the catalog when a matching file changes
	Watch bool `yaml:"watch"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=memory file nats redis"`
	Dir         string `yaml:"dir"`
	NATSURL     string `yaml:"nats_url" validate:"omitempty,url"`
	Bucket      string `yaml:"bucket"`
	RedisAddr   string `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// UsersConfig configures the user directory
type UsersConfig struct {
	// Directory lists the users that can be befriended (empty = built-in list)
	Directory []string `yaml:"directory"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig is what runs with no config file and no env overrides.
func DefaultConfig() *Config {
	return &Config{
		Planner: PlannerConfig{
			MaxStops:        itinerary.DefaultMaxStops,
			TravelGap:       itinerary.DefaultGap,
			DefaultDuration: itinerary.DefaultDuration,
		},
		Concierge: ConciergeConfig{
			Persona:      concierge.DefaultPersona,
			HistoryLimit: concierge.DefaultHistoryLimit,
			Timeout:      45 * time.Second,
			Temperature:  0.7,
		},
		Catalog: CatalogConfig{
			Source:   "file",
			Paths:    []string{"venues.json"},
			CacheTTL: 0,
			Count:    30,
			City:     "Los Angeles",
		},
		Storage: StorageConfig{
			Backend:     storage.BackendFile,
			Dir:         defaultDataDir(),
			Bucket:      "nightlife",
			RedisPrefix: "nightlife:",
		},
		Log: LogConfig{Level: "info"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nightlife"
	}
	return filepath.Join(home, ".local", "share", "nightlife")
}

// Validate runs the struct tags and the cross-field checks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var errs []error
	if c.Catalog.Source == "file" && len(c.Catalog.Paths) == 0 {
		errs = append(errs, errors.New("catalog.paths is required for the file source"))
	}
	switch c.Storage.Backend {
	case storage.BackendFile:
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required for the file backend"))
		}
	case storage.BackendNATS:
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required for the nats backend"))
		}
	case storage.BackendRedis:
		if c.Storage.RedisAddr == "" {
			errs = append(errs, errors.New("storage.redis_addr is required for the redis backend"))
		}
	}
	if !c.Models.Empty() {
		if _, err := model.FromConfig(c.Models); err != nil {
			errs = append(errs, fmt.Errorf("models: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.Storage.Backend,
		Dir:         c.Storage.Dir,
		NATSURL:     c.Storage.NATSURL,
		Bucket:      c.Storage.Bucket,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
}

// BuilderOptions converts the planner section for itinerary.NewBuilder.
func (c *Config) BuilderOptions() []itinerary.Option {
	return []itinerary.Option{
		itinerary.WithMaxStops(c.Planner.MaxStops),
		itinerary.WithGap(c.Planner.TravelGap),
		itinerary.WithDefaultDuration(c.Planner.DefaultDuration),
	}
}

// SessionOptions converts the concierge section for concierge.NewSession.
func (c *Config) SessionOptions() []concierge.Option {
	return []concierge.Option{
		concierge.WithPersona(c.Concierge.Persona),
		concierge.WithHistoryLimit(c.Concierge.HistoryLimit),
		concierge.WithTemperature(c.Concierge.Temperature),
	}
}

// Registry builds the model registry from the models section.
func (c *Config) Registry() (*model.Registry, error) {
	return model.FromConfig(c.Models)
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := decodeFile(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

// decodeFile decodes path over c; keys absent from the file keep their value.
func decodeFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile writes c as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	return nil
}
