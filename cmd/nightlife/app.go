package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kevinbrodzinski/nightlife/concierge"
	"github.com/kevinbrodzinski/nightlife/config"
	"github.com/kevinbrodzinski/nightlife/group"
	"github.com/kevinbrodzinski/nightlife/itinerary"
	"github.com/kevinbrodzinski/nightlife/llm"
	"github.com/kevinbrodzinski/nightlife/metrics"
	"github.com/kevinbrodzinski/nightlife/model"
	"github.com/kevinbrodzinski/nightlife/storage"
	"github.com/kevinbrodzinski/nightlife/user"
	"github.com/kevinbrodzinski/nightlife/venue"
)

// App is the main application that wires together all components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time

	// Storage
	store      storage.Store
	closeStore func()

	// Metrics
	registry *prometheus.Registry
	metrics  *metrics.Recorder
	server   *http.Server

	// Agent and catalog
	client    llm.Completer
	catalog   *venue.Catalog
	timezones *venue.TimezoneResolver

	// Per-user state
	saved  *itinerary.SavedPlans
	groups *group.Registry
	users  *user.Data
}

// AppOption configures an App.
type AppOption func(*App)

// WithCompleter replaces the registry-backed LLM client.
func WithCompleter(c llm.Completer) AppOption {
	return func(a *App) { a.client = c }
}

// WithStore replaces the configured storage backend.
func WithStore(s storage.Store) AppOption {
	return func(a *App) { a.store = s }
}

// WithClock overrides the wall clock used for default planning contexts.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) { a.now = now }
}

// NewApp opens storage and loads every store the commands need.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger, now: time.Now, closeStore: func() {}}
	for _, opt := range opts {
		opt(a)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	a.metrics = metrics.New(a.registry)

	if a.store == nil {
		store, closeStore, err := storage.Open(ctx, cfg.StorageOptions(), logger)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.store, a.closeStore = store, closeStore
	}

	if a.client == nil {
		registry, err := cfg.Registry()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("model registry: %w", err)
		}
		a.client = llm.NewClient(registry,
			llm.WithTimeout(cfg.Concierge.Timeout),
			llm.WithLogger(logger),
			llm.WithObserver(a.metrics),
		)
	}

	var provider venue.Provider
	switch cfg.Catalog.Source {
	case "llm":
		provider = venue.NewLLMProvider(a.client, string(model.CapabilityCatalog), cfg.Catalog.Count, cfg.Catalog.City)
	default:
		provider = venue.NewFileProvider(cfg.Catalog.Paths...)
	}
	a.catalog = venue.NewCatalog(provider, a.store, cfg.Catalog.CacheTTL, logger)

	var err error
	if a.saved, err = itinerary.LoadSavedPlans(ctx, a.store, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("load saved plans: %w", err)
	}
	if a.groups, err = group.Load(ctx, a.store, group.WithLogger(logger), group.WithObserver(a.metrics)); err != nil {
		a.Close()
		return nil, fmt.Errorf("load group plans: %w", err)
	}
	if a.users, err = user.Open(ctx, a.store, cfg.Users.Directory, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("load user data: %w", err)
	}

	return a, nil
}

// ServeMetrics exposes /metrics on addr until Close.
func (a *App) ServeMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("Metrics server stopped", "error", err)
		}
	}()
	a.logger.Info("Serving metrics", "addr", ln.Addr().String())
	return nil
}

// WatchCatalog invalidates the catalog when a file source changes. It runs
// until ctx is done.
func (a *App) WatchCatalog(ctx context.Context) {
	if a.cfg.Catalog.Source != "file" || !a.cfg.Catalog.Watch {
		return
	}
	go func() {
		if err := a.catalog.Watch(ctx, a.cfg.Catalog.Paths); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("Catalog watch stopped", "error", err)
		}
	}()
}

// Close releases the metrics server and storage connection.
func (a *App) Close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
	a.closeStore()
}

// location is the manual override when enabled. Device location is not
// acquired by the CLI.
func (a *App) location() *venue.Coordinate {
	return a.users.Location.Effective(nil)
}

// PlanningContext resolves the default context for now, then applies any
// explicit date or hour.
func (a *App) PlanningContext(date, hour string) (venue.Context, error) {
	loc := a.location()
	var pctx venue.Context
	if loc != nil {
		if a.timezones == nil {
			tz, err := venue.NewTimezoneResolver()
			if err != nil {
				a.logger.Warn("Timezone lookup unavailable, using local time", "error", err)
			}
			a.timezones = tz
		}
		pctx = a.timezones.DefaultContextAt(a.now(), loc)
	} else {
		pctx = venue.DefaultContext(a.now(), time.Local)
	}

	if date != "" {
		pctx.Date = date
	}
	if hour != "" {
		pctx.Hour = hour
	}
	if err := pctx.Validate(); err != nil {
		return venue.Context{}, err
	}
	return pctx, nil
}

// Rank loads the catalog and applies the criteria.
func (a *App) Rank(ctx context.Context, c venue.Criteria) ([]venue.Processed, error) {
	venues, err := a.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	if c.ManualLocation == nil {
		c.ManualLocation = a.location()
	}
	return venue.Rank(venues, c, nil)
}

// Processed loads the catalog derived for pctx, ranked by score.
func (a *App) Processed(ctx context.Context, pctx venue.Context) ([]venue.Processed, error) {
	venues, err := a.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := venue.Process(venues, pctx)
	if err != nil {
		return nil, err
	}
	venue.SortByScore(processed)
	return processed, nil
}

// NewPlanner starts a planning session for pctx.
func (a *App) NewPlanner(pctx venue.Context) *itinerary.Planner {
	return itinerary.NewPlanner(itinerary.NewBuilder(a.cfg.BuilderOptions()...), pctx, a.metrics)
}

// NewSession starts a concierge conversation driving planner.
func (a *App) NewSession(planner *itinerary.Planner) *concierge.Session {
	opts := append(a.cfg.SessionOptions(),
		concierge.WithRecorder(a.metrics),
		concierge.WithLogger(a.logger),
		concierge.WithClock(a.now),
	)
	return concierge.NewSession(a.client, planner, a.catalog, opts...)
}
