package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kevinbrodzinski/nightlife/storage"
	"github.com/kevinbrodzinski/nightlife/venue"
)

// Saved plan errors.
var (
	ErrEmptyItinerary = errors.New("no plan to save")
	ErrPlanNotFound   = errors.New("saved plan not found")
)

// SavedPlan is a named snapshot of an itinerary and its context.
type SavedPlan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	Hour      string    `json:"time"`
	Itinerary Itinerary `json:"itinerary"`
	CreatedAt time.Time `json:"createdAt"`
}

// Context returns the planning context the plan was made for.
func (s SavedPlan) Context() venue.Context {
	return venue.Context{Date: s.Date, Hour: s.Hour}
}

// SavedPlans is the persisted list of saved plans. Every mutation is written
// to the store before it is applied in memory.
type SavedPlans struct {
	mu     sync.RWMutex
	store  storage.Store
	plans  []SavedPlan
	now    func() time.Time
	logger *slog.Logger
}

// LoadSavedPlans reads the saved list. A corrupt entry yields an empty list.
func LoadSavedPlans(ctx context.Context, store storage.Store, logger *slog.Logger) (*SavedPlans, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SavedPlans{store: store, now: time.Now, logger: logger}
	if _, err := storage.LoadJSON(ctx, store, storage.KeySavedPlans, &s.plans, logger); err != nil {
		return nil, err
	}
	return s, nil
}

// PlanName renders "Plan for Fri, Aug 16 at 7:00 PM".
func PlanName(c venue.Context) string {
	return fmt.Sprintf("Plan for %s at %s", venue.ShortDate(c.Date), c.HourLabel())
}

// List returns the saved plans, oldest first.
func (s *SavedPlans) List() []SavedPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.plans)
}

// Get returns the plan with id.
func (s *SavedPlans) Get(id string) (SavedPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return SavedPlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
}

// Save stores it under a new id.
func (s *SavedPlans) Save(ctx context.Context, c venue.Context, it Itinerary) (SavedPlan, error) {
	if len(it) == 0 {
		return SavedPlan{}, ErrEmptyItinerary
	}

	plan := SavedPlan{
		ID:        "plan-" + uuid.NewString(),
		Name:      PlanName(c),
		Date:      c.Date,
		Hour:      c.Hour,
		Itinerary: it.Clone(),
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clone(s.plans), plan)
	if err := s.commit(ctx, next); err != nil {
		return SavedPlan{}, err
	}
	s.logger.Debug("Saved plan", "id", plan.ID, "stops", len(plan.Itinerary))
	return plan, nil
}

// Delete removes the plan with id.
func (s *SavedPlans) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.plans, func(p SavedPlan) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return s.commit(ctx, slices.Delete(slices.Clone(s.plans), i, i+1))
}

// Clear removes every saved plan.
func (s *SavedPlans) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, []SavedPlan{})
}

// IsSaved reports whether a plan with the same date, hour and venue
// sequence as it already exists.
func (s *SavedPlans) IsSaved(c venue.Context, it Itinerary) bool {
	if len(it) == 0 {
		return false
	}
	ids := it.VenueIDs()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.plans, func(p SavedPlan) bool {
		return p.Date == c.Date && p.Hour == c.Hour && slices.Equal(p.Itinerary.VenueIDs(), ids)
	})
}

// commit must be called with s.mu held.
func (s *SavedPlans) commit(ctx context.Context, plans []SavedPlan) error {
	if err := storage.SaveJSON(ctx, s.store, storage.KeySavedPlans, plans); err != nil {
		return fmt.Errorf("persist saved plans: %w", err)
	}
	s.plans = plans
	return nil
}
