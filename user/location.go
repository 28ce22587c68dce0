package user

import (
	"context"
	"log/slog"

	"github.com/kevinbrodzinski/nightlife/storage"
	"github.com/kevinbrodzinski/nightlife/venue"
)

// ManualLocation is a user-entered location and whether it overrides the
// device location.
type ManualLocation struct {
	Location *venue.Coordinate `json:"location,omitempty"`
	Enabled  bool              `json:"enabled"`
}

// Location persists the manual location override.
type Location struct {
	rec *record[ManualLocation]
}

// LoadLocation reads the manual location.
func LoadLocation(ctx context.Context, store storage.Store, logger *slog.Logger) (*Location, error) {
	rec, err := loadRecord(ctx, store, storage.KeyManualLocation, ManualLocation{}, logger)
	if err != nil {
		return nil, err
	}
	return &Location{rec: rec}, nil
}

// Manual returns the stored override.
func (l *Location) Manual() ManualLocation {
	return l.rec.get()
}

// Set validates c, stores it and enables the override.
func (l *Location) Set(ctx context.Context, c venue.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return l.rec.update(ctx, func(ManualLocation) (ManualLocation, error) {
		return ManualLocation{Location: &c, Enabled: true}, nil
	})
}

// SetEnabled switches the override on or off, keeping the stored location.
func (l *Location) SetEnabled(ctx context.Context, enabled bool) error {
	return l.rec.update(ctx, func(m ManualLocation) (ManualLocation, error) {
		m.Enabled = enabled
		return m, nil
	})
}

// Clear removes the override.
func (l *Location) Clear(ctx context.Context) error {
	return l.rec.reset(ctx, ManualLocation{})
}

// Effective returns the manual location when enabled and set, else device.
func (l *Location) Effective(device *venue.Coordinate) *venue.Coordinate {
	m := l.rec.get()
	if m.Enabled && m.Location != nil {
		c := *m.Location
		return &c
	}
	return device
}
