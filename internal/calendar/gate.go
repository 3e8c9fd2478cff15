// Package calendar decides whether an advent door may be opened at a given
// instant. It is a pure function of time and never looks at storage.
package calendar

import (
	"errors"
	"fmt"
	"time"

	// Zone data is embedded so the reference zone resolves on hosts
	// without a zoneinfo database.
	_ "time/tzdata"
)

// SeasonDays is the number of doors in the calendar.
const SeasonDays = 24

// DefaultTimezone is the reference zone the doors follow.
const DefaultTimezone = "Europe/Berlin"

// ErrInvalidDay is returned for door numbers outside 1..SeasonDays.
var ErrInvalidDay = errors.New("invalid day (must be 1-24)")

// ValidDay reports whether day is one of the calendar doors.
func ValidDay(day int) bool {
	return day >= 1 && day <= SeasonDays
}

// Reason explains why the gate is closed.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonWrongMonth Reason = "wrong_month"
	ReasonTooEarly   Reason = "too_early"
	ReasonTooLate    Reason = "too_late"
)

// Message renders the reason for the given door in the calendar's locale.
func (r Reason) Message(day int) string {
	switch r {
	case ReasonWrongMonth:
		return "Der Adventskalender kann nur im Dezember geöffnet werden! 🎄"
	case ReasonTooEarly:
		return fmt.Sprintf("Dieses Türchen kann erst am %d. Dezember geöffnet werden! 🔒", day)
	case ReasonTooLate:
		return fmt.Sprintf("Dieses Türchen konnte nur am %d. Dezember geöffnet werden! ⏰", day)
	default:
		return ""
	}
}

// Decision is the outcome of Gate.Evaluate.
type Decision struct {
	Day     int
	Allowed bool
	Reason  Reason
}

// Message is the human-readable reason, empty when the gate is open.
func (d Decision) Message() string {
	return d.Reason.Message(d.Day)
}

// Gate evaluates door eligibility in a fixed reference timezone.
type Gate struct {
	loc *time.Location
}

// NewGate creates a Gate for loc. A nil loc means UTC.
func NewGate(loc *time.Location) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{loc: loc}
}

// LoadGate creates a Gate for the named IANA zone.
func LoadGate(name string) (*Gate, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return NewGate(loc), nil
}

// Location returns the reference timezone.
func (g *Gate) Location() *time.Location {
	return g.loc
}

// Evaluate reports whether door day may be opened at now. The month check
// comes first, so outside December every door is closed with the same reason.
func (g *Gate) Evaluate(day int, now time.Time) Decision {
	local := now.In(g.loc)

	if local.Month() != time.December {
		return Decision{Day: day, Reason: ReasonWrongMonth}
	}

	current := local.Day()
	switch {
	case current < day:
		return Decision{Day: day, Reason: ReasonTooEarly}
	case current > day:
		return Decision{Day: day, Reason: ReasonTooLate}
	}

	return Decision{Day: day, Allowed: true}
}
