package venue

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidContext is returned for an unparseable date or unknown hour slot.
var ErrInvalidContext = errors.New("invalid planning context")

// DateLayout is the ISO calendar date format used throughout.
const DateLayout = "2006-01-02"

// FallbackHour is the default slot when the current hour is not a night slot.
const FallbackHour = "19"

// Slot is one selectable planning hour.
type Slot struct {
	Hour  string
	Label string
}

// Slots are the night-out hours, 5 PM through 2 AM.
var Slots = []Slot{
	{"17", "5:00 PM"}, {"18", "6:00 PM"},
	{"19", "7:00 PM"}, {"20", "8:00 PM"},
	{"21", "9:00 PM"}, {"22", "10:00 PM"},
	{"23", "11:00 PM"}, {"00", "12:00 AM (Midnight)"},
	{"01", "1:00 AM"}, {"02", "2:00 AM"},
}

// IsSlot reports whether hour is one of Slots.
func IsSlot(hour string) bool {
	for _, s := range Slots {
		if s.Hour == hour {
			return true
		}
	}
	return false
}

// SlotLabel returns the display label for hour, or hour itself when unknown.
func SlotLabel(hour string) string {
	for _, s := range Slots {
		if s.Hour == hour {
			return s.Label
		}
	}
	return hour
}

// Context is the active planning date, hour slot and optional location.
type Context struct {
	Date     string      `json:"date"`
	Hour     string      `json:"hour"`
	Location *Coordinate `json:"location,omitempty"`
}

// Validate checks the date parses and the hour is a known slot.
func (c Context) Validate() error {
	if _, err := time.ParseInLocation(DateLayout, c.Date, time.Local); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidContext, c.Date)
	}
	if !IsSlot(c.Hour) {
		return fmt.Errorf("%w: hour %q", ErrInvalidContext, c.Hour)
	}
	if c.Location != nil {
		if err := c.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Weekday returns the full weekday name of the planning date.
func (c Context) Weekday() (string, error) {
	d, err := time.ParseInLocation(DateLayout, c.Date, time.Local)
	if err != nil {
		return "", fmt.Errorf("%w: date %q", ErrInvalidContext, c.Date)
	}
	return d.Weekday().String(), nil
}

// StartTime returns the wall-clock time of the active slot. Hours before
// 05:00 belong to the same night and fall on the next calendar day.
func (c Context) StartTime() (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, c.Date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidContext, c.Date)
	}
	hour, err := strconv.Atoi(c.Hour)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("%w: hour %q", ErrInvalidContext, c.Hour)
	}
	if hour < 5 {
		d = d.AddDate(0, 0, 1)
	}
	return d.Add(time.Duration(hour) * time.Hour), nil
}

// HourLabel is the display label of the active slot.
func (c Context) HourLabel() string {
	return SlotLabel(c.Hour)
}

// DefaultContext picks today's date in zone and the current hour if it is a
// slot, else FallbackHour.
func DefaultContext(now time.Time, zone *time.Location) Context {
	if zone == nil {
		zone = time.Local
	}
	local := now.In(zone)
	hour := fmt.Sprintf("%02d", local.Hour())
	if !IsSlot(hour) {
		hour = FallbackHour
	}
	return Context{Date: local.Format(DateLayout), Hour: hour}
}

// ShortDate formats an ISO date as "Mon, Jan 2".
func ShortDate(date string) string {
	d, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return date
	}
	return d.Format("Mon, Jan 2")
}

// LongDate formats an ISO date as "Monday, January 2, 2006".
func LongDate(date string) string {
	d, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}

// DayLabel returns "Today", "Tomorrow" or the short date relative to now.
func DayLabel(date string, now time.Time) string {
	today := now.Format(DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(DateLayout)
	switch date {
	case today:
		return "Today"
	case tomorrow:
		return "Tomorrow"
	}
	return ShortDate(date)
}
