package itinerary

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/venue"
)

// Builder errors. A failed call never changes the itinerary it was given.
var (
	ErrNoIntents      = errors.New("no activities selected")
	ErrNoVenues       = errors.New("no venues to choose from")
	ErrItineraryFull  = errors.New("itinerary is full")
	ErrDuplicateVenue = errors.New("venue is already in the itinerary")
)

// Builder defaults.
const (
	DefaultMaxStops = 3
	DefaultGap      = 30 * time.Minute
	DefaultDuration = 90 * time.Minute
)

// Builder assigns venues and clock times to stops.
type Builder struct {
	maxStops        int
	gap             time.Duration
	defaultDuration time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxStops caps the number of stops. Values below 1 are ignored.
func WithMaxStops(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxStops = n
		}
	}
}

// WithGap sets the travel gap folded into each following start time.
func WithGap(d time.Duration) Option {
	return func(b *Builder) {
		if d >= 0 {
			b.gap = d
		}
	}
}

// WithDefaultDuration sets the stop length when no activity supplies one.
func WithDefaultDuration(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.defaultDuration = d
		}
	}
}

// NewBuilder creates a builder with the package defaults.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		maxStops:        DefaultMaxStops,
		gap:             DefaultGap,
		defaultDuration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// MaxStops returns the stop cap.
func (b *Builder) MaxStops() int { return b.maxStops }

func (b *Builder) duration(a Activity) time.Duration {
	if a.Duration > 0 {
		return a.Duration
	}
	return b.defaultDuration
}

// Generate builds an itinerary for intents in order, dropping intents past
// the stop cap. Each intent takes the best-scoring unused venue that matches
// it, then the best-scoring unused venue of any kind, then, once every venue
// is used, venues[i % len(venues)].
func (b *Builder) Generate(intents []string, venues []venue.Processed, ctx venue.Context) (Itinerary, error) {
	if len(intents) == 0 {
		return nil, ErrNoIntents
	}
	if len(venues) == 0 {
		return nil, ErrNoVenues
	}
	clock, err := ctx.StartTime()
	if err != nil {
		return nil, err
	}

	if len(intents) > b.maxStops {
		intents = intents[:b.maxStops]
	}

	used := make(map[string]bool, len(intents))
	it := make(Itinerary, 0, len(intents))

	for i, intent := range intents {
		activity := ActivityFor(intent)
		unused := lo.Filter(venues, func(v venue.Processed, _ int) bool { return !used[v.ID] })

		pick, ok := best(lo.Filter(unused, func(v venue.Processed, _ int) bool { return matches(activity, v.Venue) }))
		if !ok {
			pick, ok = best(unused)
		}
		if !ok {
			pick = venues[i%len(venues)]
		}
		used[pick.ID] = true

		end := clock.Add(b.duration(activity))
		item := Item{
			Activity: activity.Value,
			Label:    activity.Label,
			Venue:    pick,
			Start:    clock,
			End:      end,
		}
		clock = end
		if i < len(intents)-1 {
			item.Travel = TravelNote
			clock = clock.Add(b.gap)
		}
		it = append(it, item)
	}

	return it, nil
}

// Append adds v as the next stop and returns the new itinerary; it is not
// modified. The stop starts one gap after the previous end, or at the active
// hour when it is the first. Its length comes from the activity whose related
// category is the venue's, then from label, then the default.
func (b *Builder) Append(it Itinerary, v venue.Processed, label, prompt string, ctx venue.Context) (Itinerary, error) {
	if len(it) >= b.maxStops {
		return nil, fmt.Errorf("%w: max %d stops", ErrItineraryFull, b.maxStops)
	}
	if it.Contains(v.ID) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateVenue, v.Name)
	}

	var start time.Time
	if len(it) == 0 {
		var err error
		if start, err = ctx.StartTime(); err != nil {
			return nil, err
		}
	} else {
		start = it[len(it)-1].End.Add(b.gap)
	}

	activity, ok := activityForCategory(v.Category, label)
	if !ok {
		activity = Activity{Value: strings.ToLower(strings.ReplaceAll(label, " ", "")), Label: label}
	}

	out := make(Itinerary, len(it), len(it)+1)
	copy(out, it)
	if len(out) > 0 {
		out[len(out)-1].Travel = TravelNote
	}
	out = append(out, Item{
		Activity: activity.Value,
		Label:    label,
		Venue:    v,
		Start:    start,
		End:      start.Add(b.duration(activity)),
		Prompt:   prompt,
	})
	return out, nil
}

// matches reports whether v fits a: its category contains one of the
// activity terms or the related category, or a tag equals a term.
func matches(a Activity, v venue.Venue) bool {
	category := strings.ToLower(v.Category)
	tags := lo.Map(v.Tags, func(t string, _ int) string { return strings.ToLower(t) })

	if a.RelatedCategory != "" && strings.Contains(category, strings.ToLower(a.RelatedCategory)) {
		return true
	}
	return lo.SomeBy(a.terms(), func(term string) bool {
		return strings.Contains(category, term) || slices.Contains(tags, term)
	})
}

// best returns the highest-scoring venue; ties go to the earliest.
func best(venues []venue.Processed) (venue.Processed, bool) {
	if len(venues) == 0 {
		return venue.Processed{}, false
	}
	pick := venues[0]
	for _, v := range venues[1:] {
		if v.Score > pick.Score {
			pick = v
		}
	}
	return pick, true
}
