// Package main provides the nightlife binary entry point.
// Nightlife plans a night out: it ranks venues by expected crowd for a date
// and hour, builds timed itineraries and runs a chat concierge over them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	// Register LLM providers via init()
	_ "github.com/kevinbrodzinski/nightlife/llm/providers"

	"github.com/kevinbrodzinski/nightlife/config"
	"github.com/kevinbrodzinski/nightlife/llm"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "nightlife"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd(&cli{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds the global flags and the lazily built App shared by commands.
type cli struct {
	configPath  string
	logLevel    string
	metricsAddr string

	// newApp builds the App; tests replace it.
	newApp func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error)

	cfg    *config.Config
	logger *slog.Logger
	app    *App
}

func rootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Night-out planner and concierge",
		Long: `Nightlife ranks venues by how crowded they usually are at a given date
and hour, builds timed multi-stop itineraries, and runs a chat concierge that
suggests venues and adds them to your plan.

Shared group plans, saved plans, favorites and friends persist in the
configured storage backend (memory, file, NATS KV or redis).`,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&c.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	cmd.AddCommand(
		venuesCmd(c),
		planCmd(c),
		chatCmd(c),
		groupCmd(c),
		savedCmd(c),
		meCmd(c),
		configCmd(c),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// loadConfig reads .env, the layered config and sets up logging.
func (c *cli) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	bootstrap := newLogger(c.logLevel)
	loader := config.NewLoader(bootstrap)
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = loader.LoadFile(c.configPath)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := c.logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	c.logger = newLogger(level)
	slog.SetDefault(c.logger)
	c.cfg = cfg
	return cfg, nil
}

// load returns the App, building it on first use.
func (c *cli) load(cmd *cobra.Command) (*App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	newApp := c.newApp
	if newApp == nil {
		newApp = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
			return NewApp(ctx, cfg, logger)
		}
	}
	app, err := newApp(cmd.Context(), cfg, c.logger)
	if err != nil {
		return nil, err
	}
	if c.metricsAddr != "" {
		if err := app.ServeMetrics(c.metricsAddr); err != nil {
			app.Close()
			return nil, err
		}
	}
	c.app = app
	return app, nil
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func configCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.NewLoader(newLogger(c.logLevel)).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "providers",
		Short: "List the LLM provider adapters endpoints may name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range llm.ListProviders() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})

	return cmd
}
