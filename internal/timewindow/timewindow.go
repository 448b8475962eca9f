// Package timewindow holds the booking-window rules: which wall-clock times
// are open for booking and how times are rendered for customers. All values
// are interpreted in the single business time zone.
package timewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BusinessZone is the fixed time zone all booking-window logic runs in,
// regardless of where the customer is.
const BusinessZone = "Asia/Manila"

const (
	// WindowOpenMinutes is 09:00 as minutes since midnight.
	WindowOpenMinutes = 9 * 60
	// WindowCloseMinutes is the 19:00 daily cutoff as minutes since midnight.
	WindowCloseMinutes = 19 * 60
	// SlotStepMinutes is the booking slot granularity.
	SlotStepMinutes = 30
)

// BusinessLocation resolves the business time zone.
func BusinessLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(BusinessZone)
	if err != nil {
		return nil, fmt.Errorf("load business zone: %w", err)
	}
	return loc, nil
}

// TimeOfDay is a wall-clock time without a date, in the business zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time format: %s", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour: %s", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute: %s", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// MinuteOfDay returns minutes since midnight.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// String renders the 24-hour "HH:MM" form used on the wire.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Format12Hour renders "h:mm AM/PM". Hours 0 and 12 both display as 12.
func (t TimeOfDay) Format12Hour() string {
	meridiem := "AM"
	hour := t.Hour
	if hour >= 12 {
		meridiem = "PM"
	}
	hour = hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute, meridiem)
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.MinuteOfDay() < other.MinuteOfDay()
}

// CalendarDate is a date without a time component, business-zone-relative.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseCalendarDate parses a "YYYY-MM-DD" string.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date format: %s", s)
	}
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf extracts the calendar date of an instant as seen in its location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Instant combines the date with a time of day into an absolute instant in
// the given location. This is the only way date+time pairs become instants;
// never concatenate strings with zone offsets.
func (d CalendarDate) Instant(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// AllowedSlots returns every bookable start time for a business day:
// 30-minute marks from 09:00 through 19:00 inclusive.
func AllowedSlots() []TimeOfDay {
	var slots []TimeOfDay
	for m := WindowOpenMinutes; m <= WindowCloseMinutes; m += SlotStepMinutes {
		slots = append(slots, TimeOfDay{Hour: m / 60, Minute: m % 60})
	}
	return slots
}

// IsWithinWindow reports whether t falls inside the booking window,
// inclusive at both 09:00 and 19:00. Arbitrary minute values are accepted;
// the window check is not limited to slot boundaries.
func IsWithinWindow(t TimeOfDay) bool {
	m := t.MinuteOfDay()
	return m >= WindowOpenMinutes && m <= WindowCloseMinutes
}
