// Package booking runs free-slot lookups and booking mutations against the
// owner's calendar.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/whatsapp-scheduler/internal/calendar"
	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// DefaultTitle names bookings created without a summary.
const DefaultTitle = "Reunião Automática"

// Availability is the outcome of a free-slot query for one day.
type Availability struct {
	Date   time.Time
	Closed bool
	Slots  []scheduling.Slot
}

// Free returns the unoccupied slots in order.
func (a Availability) Free() []scheduling.Slot {
	return scheduling.FreeSlots(a.Slots)
}

// Service answers availability questions and creates or cancels bookings.
// It keeps no state between calls: every query reads the live calendar.
type Service struct {
	provider calendar.Provider
	loc      *time.Location
	window   scheduling.CalendarWindow
	now      func() time.Time
	logger   *logging.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithWindow overrides the daily operating window.
func WithWindow(w scheduling.CalendarWindow) Option {
	return func(s *Service) { s.window = w }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service around a calendar provider.
func NewService(provider calendar.Provider, loc *time.Location, logger *logging.Logger, opts ...Option) *Service {
	if provider == nil {
		panic("booking: calendar provider cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		provider: provider,
		loc:      loc,
		window:   scheduling.DefaultWindow(),
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current instant in the calendar timezone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Location returns the calendar timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// FreeSlots resolves dateText ("d" or "d/m") and marks which slots of that
// day are taken. Sundays short-circuit with Closed set and no calendar call.
func (s *Service) FreeSlots(ctx context.Context, dateText string) (Availability, error) {
	date, err := scheduling.ResolveDate(dateText, s.Now())
	if err != nil {
		return Availability{}, err
	}
	s.logger.Info("getting free slots", "input", dateText, "date", date.Format("2006-01-02"))

	if scheduling.IsClosed(date) {
		return Availability{Date: date, Closed: true}, nil
	}

	open, closing := s.window.Bounds(date)
	bookings, err := s.provider.ListEvents(ctx, open, closing)
	if err != nil {
		return Availability{}, fmt.Errorf("booking: list bookings for %s: %w", date.Format("2006-01-02"), err)
	}

	slots := scheduling.MarkOccupied(scheduling.GenerateSlots(date, s.window), bookings)
	return Availability{Date: date, Slots: slots}, nil
}

// Execute creates or cancels according to req.Action.
func (s *Service) Execute(ctx context.Context, req scheduling.BookingRequest) (scheduling.Booking, error) {
	switch req.Action {
	case scheduling.ActionCreate:
		return s.Create(ctx, req)
	case scheduling.ActionCancel:
		return s.Cancel(ctx, req)
	default:
		return scheduling.Booking{}, fmt.Errorf("booking: unsupported action %q", req.Action)
	}
}

// Create books [start, start+duration). No overlap check is made here; the
// calendar is the source of truth.
func (s *Service) Create(ctx context.Context, req scheduling.BookingRequest) (scheduling.Booking, error) {
	if req.Start.IsZero() {
		return scheduling.Booking{}, fmt.Errorf("booking: start time required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}
	start := req.Start.In(s.loc)
	booking := scheduling.Booking{
		Title: title,
		Start: start,
		End:   start.Add(req.EffectiveDuration()),
	}
	s.logger.Info("creating booking", "title", title, "start", booking.Start, "end", booking.End)

	created, err := s.provider.InsertEvent(ctx, booking)
	if err != nil {
		return scheduling.Booking{}, fmt.Errorf("booking: create: %w", err)
	}
	return created, nil
}

// Cancel deletes the booking nearest req.Start (see scheduling.LocateBooking).
// It returns scheduling.ErrBookingNotFound without side effects when nothing
// sits in the search window.
func (s *Service) Cancel(ctx context.Context, req scheduling.BookingRequest) (scheduling.Booking, error) {
	if req.Start.IsZero() {
		return scheduling.Booking{}, fmt.Errorf("booking: start time required")
	}
	target := req.Start.In(s.loc)
	from, to := scheduling.LocatorWindow(target)
	s.logger.Info("searching booking to cancel", "target", target, "title", req.Title, "from", from, "to", to)

	bookings, err := s.provider.ListEvents(ctx, from, to)
	if err != nil {
		return scheduling.Booking{}, fmt.Errorf("booking: cancel lookup: %w", err)
	}
	found, err := scheduling.LocateBooking(bookings, target, req.Title)
	if err != nil {
		s.logger.Warn("no booking found to cancel", "target", target, "candidates", len(bookings))
		return scheduling.Booking{}, err
	}
	if err := s.provider.DeleteEvent(ctx, found.ID); err != nil {
		return scheduling.Booking{}, fmt.Errorf("booking: cancel %s: %w", found.ID, err)
	}
	s.logger.Info("booking cancelled", "event_id", found.ID)
	return found, nil
}
