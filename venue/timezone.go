package venue

import (
	"fmt"
	"time"

	"github.com/ringsaturn/tzf"
)

// TimezoneResolver maps coordinates to IANA time zones.
type TimezoneResolver struct {
	finder tzf.F
}

// NewTimezoneResolver loads the embedded boundary data.
func NewTimezoneResolver() (*TimezoneResolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("load timezone data: %w", err)
	}
	return &TimezoneResolver{finder: finder}, nil
}

// Location returns the zone containing c, or time.Local when unresolved.
func (r *TimezoneResolver) Location(c Coordinate) *time.Location {
	if r == nil || r.finder == nil {
		return time.Local
	}
	name := r.finder.GetTimezoneName(c.Lon, c.Lat)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultContextAt resolves the default context for a device location.
func (r *TimezoneResolver) DefaultContextAt(now time.Time, at *Coordinate) Context {
	zone := time.Local
	if at != nil {
		zone = r.Location(*at)
	}
	ctx := DefaultContext(now, zone)
	ctx.Location = at
	return ctx
}
