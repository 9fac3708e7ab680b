// Package calendar talks to the calendar that holds the owner's bookings.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
)

// Provider is the calendar backend. Listings use overlap semantics (an event
// is returned when it ends after timeMin and starts before timeMax) and are
// ordered by start time.
type Provider interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]scheduling.Booking, error)
	InsertEvent(ctx context.Context, booking scheduling.Booking) (scheduling.Booking, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ProviderError wraps a failed calendar round-trip.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("calendar: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
