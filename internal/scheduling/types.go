// Package scheduling holds the calendar math behind free-slot listings and
// appointment lookups: resolving partial dates, enumerating slots in the
// daily operating window, marking slots that collide with bookings and
// locating a booking near an approximate time.
package scheduling

import (
	"errors"
	"time"
)

var (
	// ErrInvalidDate is returned when a day or day/month does not name a real date.
	ErrInvalidDate = errors.New("scheduling: invalid date")
	// ErrBookingNotFound is returned when no booking matches a cancellation.
	ErrBookingNotFound = errors.New("scheduling: booking not found")
)

// Action is the operation requested by a BookingRequest.
type Action string

const (
	ActionCreate Action = "create"
	ActionCancel Action = "cancel"
)

// DefaultDuration applies when a BookingRequest carries no duration.
const DefaultDuration = time.Hour

// MaxDuration is the longest booking a request may ask for.
const MaxDuration = 24 * time.Hour

// Slot is a candidate appointment interval [Start, End).
type Slot struct {
	Start    time.Time
	End      time.Time
	Occupied bool
}

// Booking is a calendar event owned by the calendar provider.
type Booking struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

// BookingRequest is the structured form of a free-text scheduling message.
type BookingRequest struct {
	Action   Action
	Start    time.Time
	Title    string
	Duration time.Duration
}

// EffectiveDuration returns the requested duration or DefaultDuration.
func (r BookingRequest) EffectiveDuration() time.Duration {
	if r.Duration <= 0 {
		return DefaultDuration
	}
	return r.Duration
}

// End returns Start plus the effective duration.
func (r BookingRequest) End() time.Time {
	return r.Start.Add(r.EffectiveDuration())
}
