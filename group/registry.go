package group

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/itinerary"
	"github.com/kevinbrodzinski/nightlife/storage"
)

const (
	// CodeAlphabet is the set of characters a join code is drawn from.
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength is the number of characters in a join code.
	CodeLength = 6
	// mintAttempts bounds re-minting after a collision.
	mintAttempts = 8
)

// Observer is told the number of live plans after every change.
type Observer interface {
	SetActivePlans(n int)
}

// Registry is the persisted set of group plans. Every mutation is written to
// the store before it is applied in memory.
type Registry struct {
	mu       sync.RWMutex
	store    storage.Store
	plans    map[string]Plan
	mint     func() (string, error)
	now      func() time.Time
	observer Observer
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver reports the live plan count to o.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithCodeSource replaces the random code generator.
func WithCodeSource(mint func() (string, error)) Option {
	return func(r *Registry) { r.mint = mint }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Load reads the registry from store. A corrupt entry yields an empty
// registry.
func Load(ctx context.Context, store storage.Store, opts ...Option) (*Registry, error) {
	r := &Registry{
		store:  store,
		plans:  make(map[string]Plan),
		mint:   NewCode,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	var plans map[string]Plan
	ok, err := storage.LoadJSON(ctx, store, storage.KeySharedPlans, &plans, r.logger)
	if err != nil {
		return nil, err
	}
	if !ok {
		plans = nil
	}
	for code, p := range plans {
		// A plan with no members should never have been stored.
		if len(p.Members) == 0 {
			r.logger.Warn("Dropping group plan without members", "code", code)
			continue
		}
		r.plans[code] = p
	}
	r.observe()
	return r, nil
}

// NewCode mints a random join code from CodeAlphabet.
func NewCode() (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	// 252 is the largest multiple of len(CodeAlphabet) below 256; bytes at or
	// above it are redrawn so every character is equally likely.
	limit := byte(256 - 256%len(CodeAlphabet))
	for b.Len() < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		if buf[0] >= limit {
			continue
		}
		b.WriteByte(CodeAlphabet[int(buf[0])%len(CodeAlphabet)])
	}
	return b.String(), nil
}

// NormalizeCode upper-cases and trims a user-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Get returns a copy of the plan with code.
func (r *Registry) Get(code string) (Plan, error) {
	code = NormalizeCode(code)
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[code]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, code)
	}
	return p.Clone(), nil
}

// List returns every plan ordered by code.
func (r *Registry) List() []Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := slices.Sorted(maps.Keys(r.plans))
	return lo.Map(codes, func(code string, _ int) Plan { return r.plans[code].Clone() })
}

// Len returns the number of live plans.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plans)
}

// Create shares it under a fresh code with creator as the only member.
func (r *Registry) Create(ctx context.Context, creator string, it itinerary.Itinerary) (Plan, error) {
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return Plan{}, ErrInvalidMember
	}
	if len(it) == 0 {
		return Plan{}, ErrEmptyItinerary
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.unusedCode()
	if err != nil {
		return Plan{}, err
	}
	p := Plan{
		Code:      code,
		Itinerary: it.Clone(),
		Creator:   creator,
		Members:   []string{creator},
		Presence:  map[string]Presence{creator: {Status: StatusNotArrived}},
		CreatedAt: r.now().UTC(),
	}

	next := maps.Clone(r.plans)
	next[code] = p
	if err := r.commit(ctx, next); err != nil {
		return Plan{}, err
	}
	r.logger.Info("Created group plan", "code", code, "stops", len(it))
	return p.Clone(), nil
}

// Join adds member to the plan with code, if absent, and returns the plan so
// the caller can load its itinerary.
func (r *Registry) Join(ctx context.Context, code, member string) (Plan, error) {
	code = NormalizeCode(code)
	member = strings.TrimSpace(member)
	if member == "" {
		return Plan{}, ErrInvalidMember
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[code]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, code)
	}
	if p.IsMember(member) {
		return p.Clone(), nil
	}

	p = p.Clone()
	p.Members = append(p.Members, member)
	p.Presence[member] = Presence{Status: StatusNotArrived}

	next := maps.Clone(r.plans)
	next[code] = p
	if err := r.commit(ctx, next); err != nil {
		return Plan{}, err
	}
	r.logger.Info("Joined group plan", "code", code, "member", member, "members", len(p.Members))
	return p.Clone(), nil
}

// Leave removes member from the plan. The creator leaving, or the last member
// leaving, deletes the plan; deleted reports which happened.
func (r *Registry) Leave(ctx context.Context, code, member string) (deleted bool, err error) {
	code = NormalizeCode(code)
	member = strings.TrimSpace(member)

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[code]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrPlanNotFound, code)
	}
	if !p.IsMember(member) {
		return false, fmt.Errorf("%w: %s", ErrNotMember, member)
	}

	next := maps.Clone(r.plans)
	remaining := lo.Without(p.Members, member)
	if member == p.Creator || len(remaining) == 0 {
		delete(next, code)
		deleted = true
	} else {
		p = p.Clone()
		p.Members = remaining
		delete(p.Presence, member)
		next[code] = p
	}

	if err := r.commit(ctx, next); err != nil {
		return false, err
	}
	r.logger.Info("Left group plan", "code", code, "member", member, "deleted", deleted)
	return deleted, nil
}

// UpdatePresence rewrites member's presence. venueID must be a stop of the
// plan, and is required for StatusAtVenue. The whole plan record is
// rewritten; concurrent writers resolve last write wins.
func (r *Registry) UpdatePresence(ctx context.Context, code, member, venueID string, status Status) (Plan, error) {
	code = NormalizeCode(code)
	if !slices.Contains(Statuses, status) {
		return Plan{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[code]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, code)
	}
	if !p.IsMember(member) {
		return Plan{}, fmt.Errorf("%w: %s", ErrNotMember, member)
	}
	if venueID != "" && !p.Itinerary.Contains(venueID) {
		return Plan{}, fmt.Errorf("%w: %s", ErrUnknownStop, venueID)
	}
	if venueID == "" && status == StatusAtVenue {
		return Plan{}, fmt.Errorf("%w: %s needs a venue", ErrInvalidStatus, status)
	}

	p = p.Clone()
	p.Presence[member] = Presence{VenueID: venueID, Status: status}

	next := maps.Clone(r.plans)
	next[code] = p
	if err := r.commit(ctx, next); err != nil {
		return Plan{}, err
	}
	return p.Clone(), nil
}

// unusedCode must be called with r.mu held.
func (r *Registry) unusedCode() (string, error) {
	for range mintAttempts {
		code, err := r.mint()
		if err != nil {
			return "", err
		}
		if _, taken := r.plans[code]; !taken {
			return code, nil
		}
		r.logger.Debug("Plan code collision, re-minting", "code", code)
	}
	return "", ErrCodeExhausted
}

// commit must be called with r.mu held.
func (r *Registry) commit(ctx context.Context, plans map[string]Plan) error {
	if err := storage.SaveJSON(ctx, r.store, storage.KeySharedPlans, plans); err != nil {
		return fmt.Errorf("persist group plans: %w", err)
	}
	r.plans = plans
	r.observe()
	return nil
}

func (r *Registry) observe() {
	if r.observer != nil {
		r.observer.SetActivePlans(len(r.plans))
	}
}
