package draft

import (
	"errors"
	"fmt"

	"homebook/internal/timewindow"
)

var (
	// ErrSubmitInFlight is returned when submit is invoked while a previous
	// submit has not settled. Reentrant submits are rejected, not queued.
	ErrSubmitInFlight = errors.New("submission already in flight")

	// ErrNotReady is returned when submit is invoked outside the ready state.
	ErrNotReady = errors.New("draft is not ready to submit")
)

// ValidationError names a missing piece of the draft. These are caught before
// submission and never reach the backend.
type ValidationError struct {
	Field string // "date", "time" or "items"
}

func (e *ValidationError) Error() string {
	switch e.Field {
	case "items":
		return "select at least one work item"
	default:
		return fmt.Sprintf("missing %s", e.Field)
	}
}

// IneligibleWindowError blocks submission when the chosen instant fails the
// booking-window rules. The message names the allowed window for the user.
type IneligibleWindowError struct {
	Date timewindow.CalendarDate
	Time timewindow.TimeOfDay
}

func (e *IneligibleWindowError) Error() string {
	open := timewindow.TimeOfDay{Hour: timewindow.WindowOpenMinutes / 60}
	cutoff := timewindow.TimeOfDay{Hour: timewindow.WindowCloseMinutes / 60}
	return fmt.Sprintf("%s %s is not bookable: choose a future time between %s and %s",
		e.Date, e.Time.Format12Hour(), open.Format12Hour(), cutoff.Format12Hour())
}
