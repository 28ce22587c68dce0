package itinerary

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/kevinbrodzinski/nightlife/venue"
)

// View selects which planning surface is active.
type View string

const (
	ViewAI     View = "ai"
	ViewManual View = "manual"
	ViewSaved  View = "saved"
)

// ErrUnknownView is returned by SetView for anything but the three views.
var ErrUnknownView = errors.New("unknown planner view")

// Path labels which builder entry point produced a stop.
const (
	PathBulk        = "bulk"
	PathIncremental = "incremental"
)

// StopObserver is told how many stops each builder call added.
type StopObserver interface {
	ObserveStops(path string, n int)
}

// Planner is one user's planning session: the active context, the current
// itinerary, the manual activity selections and the view selector. It is
// safe for concurrent use.
type Planner struct {
	mu         sync.RWMutex
	builder    *Builder
	ctx        venue.Context
	itinerary  Itinerary
	selections []string
	view       View
	observer   StopObserver
}

// NewPlanner starts an empty session for ctx. observer may be nil.
func NewPlanner(builder *Builder, ctx venue.Context, observer StopObserver) *Planner {
	if builder == nil {
		builder = NewBuilder()
	}
	return &Planner{builder: builder, ctx: ctx, view: ViewAI, observer: observer}
}

// Builder returns the planner's builder.
func (p *Planner) Builder() *Builder { return p.builder }

// Context returns the active planning context.
func (p *Planner) Context() venue.Context {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ctx
}

// SetContext changes the active date, hour or location. The itinerary is kept.
func (p *Planner) SetContext(ctx venue.Context) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx = ctx
	return nil
}

// Itinerary returns a copy of the current itinerary.
func (p *Planner) Itinerary() Itinerary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.itinerary.Clone()
}

// Len returns the number of stops.
func (p *Planner) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.itinerary)
}

// Full reports whether another stop would exceed the cap.
func (p *Planner) Full() bool {
	return p.Len() >= p.builder.MaxStops()
}

// Selections returns the manual activity selections.
func (p *Planner) Selections() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.selections)
}

// ToggleSelection adds or removes an activity from the manual selections.
// Adding past the stop cap returns ErrItineraryFull.
func (p *Planner) ToggleSelection(value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := slices.Index(p.selections, value); i >= 0 {
		p.selections = slices.Delete(p.selections, i, i+1)
		return nil
	}
	if len(p.selections) >= p.builder.MaxStops() {
		return fmt.Errorf("%w: max %d selections", ErrItineraryFull, p.builder.MaxStops())
	}
	p.selections = append(p.selections, value)
	return nil
}

// View returns the active view.
func (p *Planner) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}

// SetView switches the active view without touching the itinerary.
func (p *Planner) SetView(v View) error {
	switch v {
	case ViewAI, ViewManual, ViewSaved:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownView, v)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = v
	return nil
}

// Generate replaces the itinerary with one built from the manual selections
// and returns to the AI view.
func (p *Planner) Generate(venues []venue.Processed) (Itinerary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	it, err := p.builder.Generate(p.selections, venues, p.ctx)
	if err != nil {
		return nil, err
	}
	p.itinerary = it
	p.view = ViewAI
	p.observe(PathBulk, len(it))
	return it.Clone(), nil
}

// Add appends one venue as the next stop.
func (p *Planner) Add(v venue.Processed, label, prompt string) (Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	it, err := p.builder.Append(p.itinerary, v, label, prompt, p.ctx)
	if err != nil {
		return Item{}, err
	}
	p.itinerary = it
	p.observe(PathIncremental, 1)
	return it[len(it)-1], nil
}

// Load replaces the itinerary, as when joining a group plan or opening a
// saved plan.
func (p *Planner) Load(it Itinerary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.itinerary = it.Clone()
	p.view = ViewAI
}

// Reset clears the itinerary and selections and returns to the AI view.
func (p *Planner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.itinerary = nil
	p.selections = nil
	p.view = ViewAI
}

func (p *Planner) observe(path string, n int) {
	if p.observer != nil && n > 0 {
		p.observer.ObserveStops(path, n)
	}
}
