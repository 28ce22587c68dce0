package itinerary

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const calendarProductID = "-//nightlife//planner//EN"

// eventNamespace derives stable event UIDs from the plan name and stop.
var eventNamespace = uuid.MustParse("5b0f1e8a-9d3c-4c1e-8f7a-2f6d1c9b4e10")

// Calendar renders the itinerary as an iCalendar document with one event
// per stop. Re-exporting the same plan yields the same event UIDs.
func (it Itinerary) Calendar(name string, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for i, item := range it {
		uid := uuid.NewSHA1(eventNamespace, fmt.Appendf(nil, "%s/%d/%s", name, i, item.Venue.ID)).String()
		event := cal.AddEvent(uid + "@nightlife")
		event.SetDtStampTime(stamp)
		event.SetStartAt(item.Start)
		event.SetEndAt(item.End)
		event.SetSummary(fmt.Sprintf("%s at %s", item.Label, item.Venue.Name))
		if item.Venue.Address != "" {
			event.SetLocation(item.Venue.Address)
		}
		description := item.Venue.Category
		if item.Travel != "" {
			description += "\nNext stop: " + item.Travel
		}
		event.SetDescription(description)
	}
	return cal
}

// WriteICS serializes the itinerary calendar to w.
func (it Itinerary) WriteICS(w io.Writer, name string, stamp time.Time) error {
	if len(it) == 0 {
		return ErrEmptyItinerary
	}
	if _, err := io.WriteString(w, it.Calendar(name, stamp).Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}
