package calendar

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/whatsapp-scheduler/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

var calendarTracer = otel.Tracer("scheduler.internal.calendar")

// Instrumented decorates a Provider with tracing, metrics and logging, and
// wraps every failure in a ProviderError.
type Instrumented struct {
	next    Provider
	metrics *metrics.MessagingMetrics
	logger  *logging.Logger
}

// Instrument wraps next. Nil metrics are allowed.
func Instrument(next Provider, m *metrics.MessagingMetrics, logger *logging.Logger) *Instrumented {
	if next == nil {
		panic("calendar: provider cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Instrumented{next: next, metrics: m, logger: logger}
}

var _ Provider = (*Instrumented)(nil)

func (p *Instrumented) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]scheduling.Booking, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.list_events")
	defer span.End()
	span.SetAttributes(
		attribute.String("calendar.time_min", timeMin.Format(time.RFC3339)),
		attribute.String("calendar.time_max", timeMax.Format(time.RFC3339)),
	)

	start := time.Now()
	bookings, err := p.next.ListEvents(ctx, timeMin, timeMax)
	p.metrics.ObserveCalendar("list", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, p.fail(span, "list events", err)
	}
	span.SetAttributes(attribute.Int("calendar.events", len(bookings)))
	p.logger.Info("calendar events listed", "time_min", timeMin, "time_max", timeMax, "count", len(bookings))
	return bookings, nil
}

func (p *Instrumented) InsertEvent(ctx context.Context, booking scheduling.Booking) (scheduling.Booking, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.insert_event")
	defer span.End()

	start := time.Now()
	created, err := p.next.InsertEvent(ctx, booking)
	p.metrics.ObserveCalendar("insert", time.Since(start).Seconds(), err)
	if err != nil {
		return scheduling.Booking{}, p.fail(span, "insert event", err)
	}
	span.SetAttributes(attribute.String("calendar.event_id", created.ID))
	p.logger.Info("calendar event created", "event_id", created.ID, "start", created.Start, "end", created.End)
	return created, nil
}

func (p *Instrumented) DeleteEvent(ctx context.Context, id string) error {
	ctx, span := calendarTracer.Start(ctx, "calendar.delete_event")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.event_id", id))

	start := time.Now()
	err := p.next.DeleteEvent(ctx, id)
	p.metrics.ObserveCalendar("delete", time.Since(start).Seconds(), err)
	if err != nil {
		return p.fail(span, "delete event", err)
	}
	p.logger.Info("calendar event deleted", "event_id", id)
	return nil
}

func (p *Instrumented) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	p.logger.Error("calendar call failed", "op", op, "error", err)
	return &ProviderError{Op: op, Err: err}
}
