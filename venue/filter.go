package venue

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// View sizes.
const (
	TopListSize  = 10
	TrendingSize = 5
)

var validate = validator.New()

// Criteria selects and ranks venues.
type Criteria struct {
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	Hour       string   `json:"hour" validate:"required,oneof=17 18 19 20 21 22 23 00 01 02"`
	Query      string   `json:"query,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Vibes      []string `json:"vibes,omitempty"`
	Features   []string `json:"features,omitempty"`
	Crowd      []Level  `json:"crowd,omitempty"`
	// MaxDistance is in miles; 0 means any distance.
	MaxDistance float64 `json:"maxDistance,omitempty" validate:"gte=0"`
	// ManualLocation overrides the device location when set.
	ManualLocation *Coordinate `json:"manualLocation,omitempty"`
}

// Validate checks field ranges and that the manual coordinate is in bounds.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContext, err)
	}
	if c.ManualLocation != nil {
		if err := c.ManualLocation.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Context builds the processing context. The manual override wins over device.
func (c Criteria) Context(device *Coordinate) Context {
	loc := device
	if c.ManualLocation != nil {
		loc = c.ManualLocation
	}
	return Context{Date: c.Date, Hour: c.Hour, Location: loc}
}

// Rank derives the catalog for the criteria context and applies the filters.
func Rank(venues []Venue, c Criteria, device *Coordinate) ([]Processed, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	pctx := c.Context(device)
	processed, err := Process(venues, pctx)
	if err != nil {
		return nil, err
	}
	return Apply(processed, c, pctx.Location), nil
}

// Apply runs the predicates in fixed order and sorts by score descending.
// Ties keep input order. The input slice is not modified. from is the
// location distances were measured from; nil skips the distance predicate.
func Apply(venues []Processed, c Criteria, from *Coordinate) []Processed {
	out := slices.Clone(venues)

	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" {
		out = lo.Filter(out, func(v Processed, _ int) bool {
			return strings.Contains(strings.ToLower(v.Name), q) ||
				strings.Contains(strings.ToLower(v.Category), q) ||
				strings.Contains(strings.ToLower(v.Description), q) ||
				lo.SomeBy(v.Tags, func(t string) bool { return strings.Contains(strings.ToLower(t), q) })
		})
	}

	if len(c.Categories) > 0 {
		out = lo.Filter(out, func(v Processed, _ int) bool {
			return lo.Contains(c.Categories, v.Category)
		})
	}

	if len(c.Vibes) > 0 {
		out = lo.Filter(out, func(v Processed, _ int) bool { return hasAnyTag(v.Venue, c.Vibes) })
	}

	if len(c.Features) > 0 {
		out = lo.Filter(out, func(v Processed, _ int) bool { return hasAnyTag(v.Venue, c.Features) })
	}

	if len(c.Crowd) > 0 {
		out = lo.Filter(out, func(v Processed, _ int) bool {
			return v.Level.Known() && lo.Contains(c.Crowd, v.Level)
		})
	}

	if c.MaxDistance > 0 && from != nil {
		out = lo.Filter(out, func(v Processed, _ int) bool {
			// venues without coordinates have no distance and cannot qualify
			return v.DistanceMiles != nil && *v.DistanceMiles <= c.MaxDistance
		})
	}

	SortByScore(out)
	return out
}

// SortByScore stable-sorts venues by popularity score, highest first.
func SortByScore(venues []Processed) {
	slices.SortStableFunc(venues, func(a, b Processed) int {
		return b.Score - a.Score
	})
}

func hasAnyTag(v Venue, wanted []string) bool {
	return lo.SomeBy(wanted, v.HasTag)
}

// TopList is the first TopListSize ranked venues.
func TopList(ranked []Processed) []Processed {
	return ranked[:min(len(ranked), TopListSize)]
}

// TrendingView is the titled top-5 view.
type TrendingView struct {
	Title  string      `json:"title"`
	Venues []Processed `json:"venues"`
}

// Trending returns the first TrendingSize ranked venues with a day title.
func Trending(ranked []Processed, date string, now time.Time) TrendingView {
	return TrendingView{
		Title:  "Trending for " + DayLabel(date, now),
		Venues: ranked[:min(len(ranked), TrendingSize)],
	}
}
