// Package venuetest builds venue fixtures for tests.
package venuetest

import (
	"time"

	"github.com/kevinbrodzinski/nightlife/venue"
)

// Friday is an ISO date that falls on a Friday.
const Friday = "2024-08-16"

// New returns a venue at downtown LA whose popularity is level for every
// weekday and slot. Pass venue.LevelUnknown for an empty table.
func New(id, category string, level venue.Level, tags ...string) venue.Venue {
	v := venue.Venue{
		ID:        id,
		Name:      "Venue " + id,
		Address:   "1 Main St, Los Angeles, CA",
		Latitude:  34.0522,
		Longitude: -118.2437,
		Category:  category,
		Tags:      tags,
	}
	if level != venue.LevelUnknown {
		v.HistoricalPopularity = Uniform(level)
	}
	return v
}

// Uniform returns a table with level at every weekday and slot.
func Uniform(level venue.Level) venue.Popularity {
	p := make(venue.Popularity, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours := make(map[string]venue.Level, len(venue.Slots))
		for _, s := range venue.Slots {
			hours[s.Hour] = level
		}
		p[d.String()] = hours
	}
	return p
}

// Named returns v with its name replaced.
func Named(v venue.Venue, name string) venue.Venue {
	v.Name = name
	return v
}

// At returns v moved to lat, lon.
func At(v venue.Venue, lat, lon float64) venue.Venue {
	v.Latitude, v.Longitude = lat, lon
	return v
}

// Processed derives venues for Friday at 19:00 with no location.
func Processed(venues ...venue.Venue) []venue.Processed {
	out, err := venue.Process(venues, venue.Context{Date: Friday, Hour: "19"})
	if err != nil {
		panic(err)
	}
	return out
}
