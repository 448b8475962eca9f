package draft

import (
	"context"
	"errors"
	"sync"

	"homebook/internal/backend"
	"homebook/internal/clock"
	"homebook/internal/pricing"
	"homebook/internal/timewindow"
)

// Submitter sends a finished draft to the booking backend.
type Submitter interface {
	CreateBooking(ctx context.Context, token string, req backend.BookingRequest) (*backend.Confirmation, error)
	RescheduleBooking(ctx context.Context, token string, bookingID int64, req backend.BookingRequest) (*backend.Confirmation, error)
}

// Controller owns one booking draft for one editing session. Field changes
// are synchronous and recompute the derived state; Submit is the only
// operation that performs I/O.
type Controller struct {
	mu        sync.Mutex
	fsm       *FSM
	clk       clock.Clock
	submitter Submitter

	serviceID int64
	bookingID int64 // nonzero when rescheduling an existing booking
	catalog   []pricing.WorkItem

	date     *timewindow.CalendarDate
	tod      *timewindow.TimeOfDay
	selected map[int64]bool

	state        State
	confirmation *backend.Confirmation
	submitErr    error

	// gen is bumped by Reset so a submission that was in flight when the
	// draft was reset cannot write its late result into the fresh draft.
	gen uint64
}

// NewController builds a draft for creating a booking of the given service.
func NewController(serviceID int64, catalog []pricing.WorkItem, submitter Submitter, clk clock.Clock) *Controller {
	return &Controller{
		fsm:       NewFSM(),
		clk:       clk,
		submitter: submitter,
		serviceID: serviceID,
		catalog:   catalog,
		selected:  make(map[int64]bool),
		state:     StateEmpty,
	}
}

// NewRescheduleController builds a draft seeded from an existing booking.
func NewRescheduleController(b backend.Booking, catalog []pricing.WorkItem, submitter Submitter, clk clock.Clock) *Controller {
	c := NewController(b.ServiceID, catalog, submitter, clk)
	c.bookingID = b.ID
	date, tod := b.Date, b.Time
	c.date, c.tod = &date, &tod
	c.derive()
	return c
}

// SetDate records the tentative date. Ignored while a submit is in flight or
// after it settled.
func (c *Controller) SetDate(d timewindow.CalendarDate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editable() {
		return
	}
	c.date = &d
	c.derive()
}

// SetTime records the tentative time of day.
func (c *Controller) SetTime(t timewindow.TimeOfDay) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editable() {
		return
	}
	c.tod = &t
	c.derive()
}

// ToggleItem flips one work item in the selection.
func (c *Controller) ToggleItem(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editable() {
		return
	}
	if c.selected[id] {
		delete(c.selected, id)
	} else {
		c.selected[id] = true
	}
	c.derive()
}

// Reset discards all draft state from any state. No history is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.date = nil
	c.tod = nil
	c.selected = make(map[int64]bool)
	c.confirmation = nil
	c.submitErr = nil
	c.state = StateEmpty
	c.gen++
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CanSubmit reports whether the draft is submittable right now.
func (c *Controller) CanSubmit() bool {
	return c.State() == StateReady
}

// Reason explains why the draft is not submittable; nil when it is.
func (c *Controller) Reason() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason()
}

// Total computes the current selection's price.
func (c *Controller) Total() pricing.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.ComputeTotal(c.catalog, c.selected)
}

// Countdown reports the remaining time before the cutoff for the chosen
// instant; ok is false while no date and time are chosen.
func (c *Controller) Countdown() (timewindow.Countdown, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.date == nil || c.tod == nil {
		return timewindow.Countdown{}, false
	}
	now := c.clk.Now()
	target := c.date.Instant(*c.tod, now.Location())
	return timewindow.TimeUntilCutoff(now, target), true
}

// Confirmation returns the backend acknowledgement once settled successfully.
func (c *Controller) Confirmation() *backend.Confirmation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmation
}

// SubmitError returns the failure a settled submission ended with.
func (c *Controller) SubmitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

// Submit sends the draft to the backend. Valid only in the ready state; a
// second call while one is in flight is rejected, not queued. Transport
// failures return the draft to ready so the user can retry; definitive
// backend responses settle it.
func (c *Controller) Submit(ctx context.Context, token string) (*backend.Confirmation, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if c.state != StateReady {
		reason := c.reason()
		c.mu.Unlock()
		if reason != nil {
			return nil, reason
		}
		return nil, ErrNotReady
	}

	req := backend.BookingRequest{
		ServiceID:       c.serviceID,
		Date:            c.date.String(),
		Time:            c.tod.String(),
		SelectedItemIDs: c.selectedIDs(),
		ComputedTotal:   pricing.ComputeTotal(c.catalog, c.selected).String(),
	}
	bookingID := c.bookingID
	gen := c.gen
	c.setState(StateSubmitting)
	c.mu.Unlock()

	var conf *backend.Confirmation
	var err error
	if bookingID != 0 {
		conf, err = c.submitter.RescheduleBooking(ctx, token, bookingID, req)
	} else {
		conf, err = c.submitter.CreateBooking(ctx, token, req)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		// The draft was reset while the call was in flight; the result
		// belongs to a discarded draft and must not touch this one.
		return conf, err
	}

	var terr *backend.TransportError
	if errors.As(err, &terr) {
		// Retryable: keep the draft and let the user submit again.
		c.setState(StateReady)
		return nil, err
	}
	c.setState(StateSettled)
	c.confirmation = conf
	c.submitErr = err
	return conf, err
}

func (c *Controller) editable() bool {
	return c.state != StateSubmitting && c.state != StateSettled
}

// derive recomputes the editing state. Caller holds the lock.
func (c *Controller) derive() {
	if c.date == nil && c.tod == nil && len(c.selected) == 0 {
		c.setState(StateEmpty)
		return
	}
	if c.reason() != nil {
		c.setState(StatePartial)
		return
	}
	c.setState(StateReady)
}

// reason reports the first blocker to submission. Caller holds the lock.
func (c *Controller) reason() error {
	if c.date == nil {
		return &ValidationError{Field: "date"}
	}
	if c.tod == nil {
		return &ValidationError{Field: "time"}
	}
	if !pricing.ValidateSelection(c.selected) {
		return &ValidationError{Field: "items"}
	}
	now := c.clk.Now()
	target := c.date.Instant(*c.tod, now.Location())
	if !timewindow.IsEligible(now, target) {
		return &IneligibleWindowError{Date: *c.date, Time: *c.tod}
	}
	return nil
}

func (c *Controller) setState(to State) {
	if c.fsm.CanTransition(c.state, to) {
		c.state = to
	}
}

func (c *Controller) selectedIDs() []int64 {
	ids := make([]int64, 0, len(c.selected))
	for _, item := range c.catalog {
		if c.selected[item.ID] {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
