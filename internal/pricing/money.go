// Package pricing computes work-selection totals with decimal-safe money
// arithmetic. Amounts are held as integer centavos; binary floating point
// never touches an amount that gets summed or submitted.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a non-negative peso amount in integer centavos.
type Money struct {
	centavos int64
}

// NewMoney builds an amount from centavos.
func NewMoney(centavos int64) (Money, error) {
	if centavos < 0 {
		return Money{}, fmt.Errorf("money cannot be negative: %d", centavos)
	}
	return Money{centavos: centavos}, nil
}

// ParseMoney normalizes a backend price field. The backend is stringly typed
// about prices: "1500", "1500.00" and "1,500.50" all occur. At most two
// fraction digits are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return Money{}, &ParseError{Field: "price", Value: s, Reason: "empty"}
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		return Money{}, &ParseError{Field: "price", Value: s, Reason: "more than two fraction digits"}
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return Money{}, &ParseError{Field: "price", Value: s, Reason: "not a non-negative decimal"}
	}
	f, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return Money{}, &ParseError{Field: "price", Value: s, Reason: "not a non-negative decimal"}
	}
	if w > (math.MaxInt64-int64(f))/100 {
		return Money{}, &ParseError{Field: "price", Value: s, Reason: "amount too large"}
	}

	return Money{centavos: w*100 + int64(f)}, nil
}

// Centavos returns the amount in integer minor units.
func (m Money) Centavos() int64 {
	return m.centavos
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{centavos: m.centavos + other.centavos}
}

// String renders the canonical two-decimal form sent to the backend.
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.centavos/100, m.centavos%100)
}

// ParseError reports a malformed value at the API boundary. Malformed prices
// fail loudly here instead of leaking NaN into aggregation.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %s", e.Field, e.Value, e.Reason)
}
