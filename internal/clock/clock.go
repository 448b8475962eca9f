// Package clock abstracts "now" so booking eligibility can be tested against
// a fixed instant instead of the system clock.
package clock

import (
	"time"

	"homebook/internal/timewindow"
)

// Clock supplies the current time in the business zone.
type Clock interface {
	Now() time.Time
}

// Business is the production clock. It converts the system time into the
// business zone before anything compares or formats it.
type Business struct {
	loc *time.Location
}

// NewBusiness resolves the business zone once at startup.
func NewBusiness() (*Business, error) {
	loc, err := timewindow.BusinessLocation()
	if err != nil {
		return nil, err
	}
	return &Business{loc: loc}, nil
}

func (c *Business) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the business zone location for building instants.
func (c *Business) Location() *time.Location {
	return c.loc
}

// Fake is a settable clock for tests.
type Fake struct {
	Current time.Time
}

func (f *Fake) Now() time.Time {
	return f.Current
}

// Advance moves the fake clock forward.
func (f *Fake) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
