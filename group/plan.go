// Package group holds shared group plans: a persisted registry keyed by a
// short join code, with per-member presence.
package group

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/kevinbrodzinski/nightlife/itinerary"
)

var (
	ErrEmptyItinerary = errors.New("group plan needs at least one stop")
	ErrPlanNotFound   = errors.New("group plan not found")
	ErrNotMember      = errors.New("not a member of this plan")
	ErrUnknownStop    = errors.New("venue is not a stop of this plan")
	ErrInvalidStatus  = errors.New("invalid presence status")
	ErrInvalidMember  = errors.New("member name is required")
	ErrCodeExhausted  = errors.New("could not mint an unused plan code")
)

// Status is a member's progress through the night.
type Status string

const (
	StatusNotArrived Status = "not_arrived"
	StatusOnTheWay   Status = "on_the_way"
	StatusAtVenue    Status = "at_venue"
	StatusLeftVenue  Status = "left_venue"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusNotArrived, StatusOnTheWay, StatusAtVenue, StatusLeftVenue}

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !slices.Contains(Statuses, st) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Presence is where one member is. VenueID is empty when not at a stop.
type Presence struct {
	VenueID string `json:"currentVenueId,omitempty"`
	Status  Status `json:"status"`
}

// Plan is one shared itinerary.
type Plan struct {
	Code      string              `json:"planId"`
	Itinerary itinerary.Itinerary `json:"itinerary"`
	Creator   string              `json:"creatorName"`
	Members   []string            `json:"members"`
	Presence  map[string]Presence `json:"memberPresence"`
	CreatedAt time.Time           `json:"createdAt"`
}

// IsMember reports whether name belongs to the plan.
func (p Plan) IsMember(name string) bool {
	return slices.Contains(p.Members, name)
}

// Clone returns a deep copy.
func (p Plan) Clone() Plan {
	p.Itinerary = p.Itinerary.Clone()
	p.Members = slices.Clone(p.Members)
	p.Presence = maps.Clone(p.Presence)
	if p.Presence == nil {
		p.Presence = make(map[string]Presence)
	}
	return p
}
