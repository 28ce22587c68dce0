package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/storage"
)

// ErrInvalidWeekday is returned for a day that is not a full weekday name.
var ErrInvalidWeekday = errors.New("invalid weekday")

// DaySave is a venue bookmarked for a weekday.
type DaySave struct {
	VenueID string    `json:"venueId"`
	Weekday string    `json:"dayOfWeek"`
	Notes   string    `json:"notes,omitempty"`
	SavedAt time.Time `json:"savedAt"`
}

// DaySaves is the persisted list of day saves, unique per venue and weekday.
type DaySaves struct {
	rec *record[[]DaySave]
	now func() time.Time
}

// LoadDaySaves reads the day saves list.
func LoadDaySaves(ctx context.Context, store storage.Store, logger *slog.Logger) (*DaySaves, error) {
	rec, err := loadRecord(ctx, store, storage.KeyDaySaves, []DaySave{}, logger)
	if err != nil {
		return nil, err
	}
	return &DaySaves{rec: rec, now: time.Now}, nil
}

// ParseWeekday canonicalizes a weekday name such as "friday".
func ParseWeekday(s string) (string, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(strings.TrimSpace(s), d.String()) {
			return d.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// All returns every day save.
func (d *DaySaves) All() []DaySave {
	return slices.Clone(d.rec.get())
}

// Save upserts the entry for venueID and weekday and reports whether an
// existing entry was updated.
func (d *DaySaves) Save(ctx context.Context, venueID, weekday, notes string) (updated bool, err error) {
	weekday, err = ParseWeekday(weekday)
	if err != nil {
		return false, err
	}
	entry := DaySave{VenueID: venueID, Weekday: weekday, Notes: strings.TrimSpace(notes), SavedAt: d.now().UTC()}

	err = d.rec.update(ctx, func(saves []DaySave) ([]DaySave, error) {
		next := slices.Clone(saves)
		if i := slices.IndexFunc(next, matchDay(venueID, weekday)); i >= 0 {
			updated = true
			next[i] = entry
			return next, nil
		}
		return append(next, entry), nil
	})
	return updated, err
}

// Remove deletes the entry for venueID and weekday, if present.
func (d *DaySaves) Remove(ctx context.Context, venueID, weekday string) error {
	weekday, err := ParseWeekday(weekday)
	if err != nil {
		return err
	}
	return d.rec.update(ctx, func(saves []DaySave) ([]DaySave, error) {
		return slices.DeleteFunc(slices.Clone(saves), matchDay(venueID, weekday)), nil
	})
}

// Lookup returns the entry for venueID and weekday.
func (d *DaySaves) Lookup(venueID, weekday string) (DaySave, bool) {
	weekday, err := ParseWeekday(weekday)
	if err != nil {
		return DaySave{}, false
	}
	return lo.Find(d.rec.get(), matchDay(venueID, weekday))
}

// DaysFor returns every entry for venueID.
func (d *DaySaves) DaysFor(venueID string) []DaySave {
	return lo.Filter(d.rec.get(), func(s DaySave, _ int) bool { return s.VenueID == venueID })
}

func matchDay(venueID, weekday string) func(DaySave) bool {
	return func(s DaySave) bool { return s.VenueID == venueID && s.Weekday == weekday }
}
