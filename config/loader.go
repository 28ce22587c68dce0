package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// ProjectConfigFile is looked up from the working directory upward.
	ProjectConfigFile = "nightlife.yaml"
	// UserConfigDir sits under the home directory.
	UserConfigDir = ".config/nightlife"
	// UserConfigFile lives in UserConfigDir.
	UserConfigFile = "config.yaml"
	// EnvPrefix starts every environment override
	EnvPrefix = "NIGHTLIFE_"
)

// Loader resolves the effective Config from defaults, files and env
type Loader struct {
	logger    *slog.Logger
	homeDir   string
	workDir   string
	lookupEnv func(string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHomeDir overrides the directory the user config is read from.
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) { l.homeDir = dir }
}

// WithWorkDir overrides where the project config search starts.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.workDir = dir }
}

// WithEnv overrides the environment lookup.
func WithEnv(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) { l.lookupEnv = lookup }
}

// NewLoader returns a Loader that logs to logger.
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load merges, lowest first:
// 1. Default config
// 2. User config (~/.config/nightlife/config.yaml)
// 3. Project config (nightlife.yaml in current or parent directories)
// 4. NIGHTLIFE_* environment variables
//
// Each file layer only overrides the keys it sets.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if err := decodeFile(userConfigPath, config); err == nil {
			l.logger.Debug("Loaded user config", "path", userConfigPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if err := decodeFile(projectConfigPath, config); err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded project config", "path", projectConfigPath)
	} else {
		l.logger.Debug("Project config not found, using user config and defaults")
	}

	if err := l.applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile loads defaults, then path, then environment overrides.
func (l *Loader) LoadFile(path string) (*Config, error) {
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := l.applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't
// exist and returns its path.
func (l *Loader) EnsureUserConfig() (string, error) {
	userConfigPath := l.userConfigPath()
	if userConfigPath == "" {
		return "", fmt.Errorf("no home directory for user config")
	}

	if _, err := os.Stat(userConfigPath); err == nil {
		return userConfigPath, nil
	}

	if err := DefaultConfig().SaveToFile(userConfigPath); err != nil {
		return "", err
	}

	l.logger.Info("Created default user config", "path", userConfigPath)
	return userConfigPath, nil
}

// userConfigPath is empty when the home directory is unknown.
func (l *Loader) userConfigPath() string {
	home := l.homeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for nightlife.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	dir := l.workDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// applyEnv overrides config from NIGHTLIFE_* variables.
func (l *Loader) applyEnv(c *Config) error {
	str := func(name string, dst *string) {
		if v, ok := l.lookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs []string
	num := func(name string, dst *int) {
		if v, ok := l.lookupEnv(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, EnvPrefix+name)
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := l.lookupEnv(EnvPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, EnvPrefix+name)
				return
			}
			*dst = d
		}
	}

	num("MAX_STOPS", &c.Planner.MaxStops)
	dur("TRAVEL_GAP", &c.Planner.TravelGap)
	str("PERSONA", &c.Concierge.Persona)
	dur("AGENT_TIMEOUT", &c.Concierge.Timeout)
	str("CATALOG_SOURCE", &c.Catalog.Source)
	str("CATALOG_CITY", &c.Catalog.City)
	if v, ok := l.lookupEnv(EnvPrefix + "CATALOG_PATHS"); ok && v != "" {
		c.Catalog.Paths = splitList(v)
	}
	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("STORAGE_DIR", &c.Storage.Dir)
	str("NATS_URL", &c.Storage.NATSURL)
	str("NATS_BUCKET", &c.Storage.Bucket)
	str("REDIS_ADDR", &c.Storage.RedisAddr)
	str("LOG_LEVEL", &c.Log.Level)

	if len(errs) > 0 {
		return fmt.Errorf("%w: unparseable %s", ErrInvalidConfig, strings.Join(errs, ", "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
