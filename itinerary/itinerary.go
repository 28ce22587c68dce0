package itinerary

import (
	"time"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/venue"
)

// TimeLayout renders item times, e.g. "7:00 PM".
const TimeLayout = "3:04 PM"

// TravelNote is attached to every stop that has a following stop.
const TravelNote = "approx. 15-30 min travel"

// Item is one stop of an itinerary.
type Item struct {
	Activity string          `json:"activityType"`
	Label    string          `json:"activityLabel"`
	Venue    venue.Processed `json:"venue"`
	Start    time.Time       `json:"startTime"`
	End      time.Time       `json:"endTime"`
	Travel   string          `json:"travelTimeToNext,omitempty"`
	Prompt   string          `json:"aiPromptText,omitempty"`
}

// StartLabel is the start time as "7:00 PM".
func (i Item) StartLabel() string { return i.Start.Format(TimeLayout) }

// EndLabel is the end time as "8:30 PM".
func (i Item) EndLabel() string { return i.End.Format(TimeLayout) }

// Itinerary is an ordered list of stops.
type Itinerary []Item

// VenueIDs returns the stop venue ids in order.
func (it Itinerary) VenueIDs() []string {
	return lo.Map(it, func(i Item, _ int) string { return i.Venue.ID })
}

// Contains reports whether venueID is already a stop.
func (it Itinerary) Contains(venueID string) bool {
	return lo.ContainsBy(it, func(i Item) bool { return i.Venue.ID == venueID })
}

// Stop returns the item at venueID.
func (it Itinerary) Stop(venueID string) (Item, bool) {
	return lo.Find(it, func(i Item) bool { return i.Venue.ID == venueID })
}

// Clone returns a copy that shares no backing array with it.
func (it Itinerary) Clone() Itinerary {
	if it == nil {
		return nil
	}
	out := make(Itinerary, len(it))
	copy(out, it)
	return out
}
