package timewindow

import "time"

// CountdownKind tags the result of a cutoff countdown.
type CountdownKind string

const (
	// CountdownDifferentDay means target is not on now's calendar day; the
	// daily cutoff does not apply and only the window check is reported.
	CountdownDifferentDay CountdownKind = "different_day"
	// CountdownOutsideWindow means target's time fails the window check.
	CountdownOutsideWindow CountdownKind = "outside_window"
	// CountdownPastCutoff means now is already past 19:00 of target's day.
	CountdownPastCutoff CountdownKind = "past_cutoff"
	// CountdownRemaining carries the time left until today's cutoff.
	CountdownRemaining CountdownKind = "remaining"
)

// Countdown describes how much time remains before the daily cutoff for a
// prospective booking instant.
type Countdown struct {
	Kind CountdownKind
	// WithinWindow is meaningful for CountdownDifferentDay only.
	WithinWindow bool
	// Hours and Minutes are meaningful for CountdownRemaining only.
	// Floor decomposition of the remaining duration; both non-negative.
	Hours   int
	Minutes int
}

// IsEligible reports whether a booking or reschedule to target is currently
// permitted. The target must be strictly in the future (booking at the exact
// current instant is rejected) and its time of day must be inside the window.
func IsEligible(now, target time.Time) bool {
	if !target.After(now) {
		return false
	}
	return IsWithinWindow(TimeOfDay{Hour: target.Hour(), Minute: target.Minute()})
}

// TimeUntilCutoff reports the remaining time before the 19:00 cutoff of
// target's day, given the current instant. The cutoff is a same-day concept:
// when target falls on a different calendar day than now, no countdown is
// computed and only the window verdict is carried. Both instants must be in
// the business zone.
func TimeUntilCutoff(now, target time.Time) Countdown {
	targetTime := TimeOfDay{Hour: target.Hour(), Minute: target.Minute()}
	within := IsWithinWindow(targetTime)

	if DateOf(now) != DateOf(target) {
		return Countdown{Kind: CountdownDifferentDay, WithinWindow: within}
	}
	if !within {
		return Countdown{Kind: CountdownOutsideWindow}
	}

	cutoff := DateOf(now).Instant(TimeOfDay{Hour: WindowCloseMinutes / 60}, now.Location())
	if !now.Before(cutoff) {
		return Countdown{Kind: CountdownPastCutoff}
	}

	left := cutoff.Sub(now)
	totalMinutes := int(left / time.Minute)
	return Countdown{
		Kind:    CountdownRemaining,
		Hours:   totalMinutes / 60,
		Minutes: totalMinutes % 60,
	}
}
