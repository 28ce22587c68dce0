package venue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/llm"
	"github.com/kevinbrodzinski/nightlife/storage"
)

// Catalog errors. Both are blocking and are not retried.
var (
	ErrCatalogUnavailable = errors.New("venue catalog unavailable")
	ErrMalformedCatalog   = errors.New("venue catalog malformed")
)

const catalogCacheKey = "venues"

// Provider supplies the raw venue catalog.
type Provider interface {
	Fetch(ctx context.Context) ([]Venue, error)
}

// FileProvider reads JSON venue arrays from files matching glob patterns.
type FileProvider struct {
	patterns []string
}

// NewFileProvider accepts doublestar patterns such as "data/**/*.json".
func NewFileProvider(patterns ...string) *FileProvider {
	return &FileProvider{patterns: patterns}
}

// Patterns returns the configured glob patterns.
func (p *FileProvider) Patterns() []string {
	return p.patterns
}

// Fetch reads every matched file. Duplicate IDs keep the first occurrence.
func (p *FileProvider) Fetch(_ context.Context) ([]Venue, error) {
	var venues []Venue
	matched := 0

	for _, pattern := range p.patterns {
		files, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", file, err)
			}
			var batch []Venue
			if err := json.Unmarshal(data, &batch); err != nil {
				return nil, fmt.Errorf("%w: parse %s: %v", ErrMalformedCatalog, file, err)
			}
			venues = append(venues, batch...)
			matched++
		}
	}

	if matched == 0 {
		return nil, fmt.Errorf("no catalog files match %v", p.patterns)
	}

	return lo.UniqBy(venues, func(v Venue) string { return v.ID }), nil
}

// LLMProvider asks a language model to generate a fictional catalog.
type LLMProvider struct {
	client     llm.Completer
	capability string
	count      int
	city       string
}

// NewLLMProvider creates a generator for count venues in city.
func NewLLMProvider(client llm.Completer, capability string, count int, city string) *LLMProvider {
	if count <= 0 {
		count = 30
	}
	if city == "" {
		city = "Los Angeles"
	}
	return &LLMProvider{client: client, capability: capability, count: count, city: city}
}

// Fetch generates and parses the catalog.
func (p *LLMProvider) Fetch(ctx context.Context) ([]Venue, error) {
	temperature := 0.6
	resp, err := p.client.Complete(ctx, llm.Request{
		Capability:  p.capability,
		Messages:    []llm.Message{{Role: "user", Content: CatalogPrompt(p.count, p.city)}},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate catalog: %w", err)
	}

	raw := llm.ExtractJSONArray(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON array in model response", ErrMalformedCatalog)
	}

	var venues []Venue
	if err := json.Unmarshal([]byte(raw), &venues); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	return venues, nil
}

// Catalog serves the venue list from an in-process cache, then the persisted
// cache, then the provider.
type Catalog struct {
	provider Provider
	store    storage.Store
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewCatalog creates a loader. ttl <= 0 keeps the in-process copy until invalidated.
func NewCatalog(provider Provider, store storage.Store, ttl time.Duration, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	expiry, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiry, cleanup = ttl, 2*ttl
	}
	return &Catalog{
		provider: provider,
		store:    store,
		cache:    cache.New(expiry, cleanup),
		logger:   logger,
	}
}

// Load returns the catalog, fetching it at most once per cache lifetime.
func (c *Catalog) Load(ctx context.Context) ([]Venue, error) {
	if cached, ok := c.cache.Get(catalogCacheKey); ok {
		return cached.([]Venue), nil
	}

	var persisted []Venue
	found, err := storage.LoadJSON(ctx, c.store, storage.KeyVenueCatalog, &persisted, c.logger)
	if err != nil {
		c.logger.Warn("Failed to read persisted catalog", "error", err)
	}
	if found {
		if Valid(persisted) {
			c.logger.Debug("Loaded persisted catalog", "venues", len(persisted))
			c.cache.SetDefault(catalogCacheKey, persisted)
			return persisted, nil
		}
		c.logger.Warn("Discarding invalid persisted catalog", "venues", len(persisted))
		if err := c.store.Delete(ctx, storage.KeyVenueCatalog); err != nil {
			c.logger.Warn("Failed to delete persisted catalog", "error", err)
		}
	}

	venues, err := c.provider.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrMalformedCatalog) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if !Valid(venues) {
		return nil, fmt.Errorf("%w: empty or missing id/popularity", ErrMalformedCatalog)
	}

	if err := storage.SaveJSON(ctx, c.store, storage.KeyVenueCatalog, venues); err != nil {
		c.logger.Warn("Failed to persist catalog", "error", err)
	}
	c.cache.SetDefault(catalogCacheKey, venues)
	c.logger.Info("Fetched venue catalog", "venues", len(venues))
	return venues, nil
}

// Invalidate drops both cache layers so the next Load refetches.
func (c *Catalog) Invalidate(ctx context.Context) error {
	c.cache.Delete(catalogCacheKey)
	if err := c.store.Delete(ctx, storage.KeyVenueCatalog); err != nil {
		return fmt.Errorf("invalidate catalog: %w", err)
	}
	return nil
}

// Watch invalidates the catalog whenever a file matching patterns changes.
// It blocks until ctx is done.
func (c *Catalog) Watch(ctx context.Context, patterns []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range lo.Uniq(lo.Map(patterns, func(p string, _ int) string {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		return filepath.FromSlash(base)
	})) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		c.logger.Debug("Watching catalog directory", "dir", dir)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !matchesAny(patterns, event.Name) {
				continue
			}
			c.logger.Info("Catalog file changed, invalidating", "file", event.Name, "op", event.Op.String())
			if err := c.Invalidate(ctx); err != nil {
				c.logger.Warn("Failed to invalidate catalog", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("Catalog watcher error", "error", err)
		}
	}
}

func matchesAny(patterns []string, name string) bool {
	return lo.SomeBy(patterns, func(p string) bool {
		ok, err := doublestar.PathMatch(p, name)
		return err == nil && ok
	})
}

// Valid reports whether a catalog is usable: non-empty, and its first record
// has an id and a popularity table.
func Valid(venues []Venue) bool {
	return len(venues) > 0 && venues[0].ID != "" && len(venues[0].HistoricalPopularity) > 0
}
