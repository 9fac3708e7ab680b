package calendar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/wolfman30/whatsapp-scheduler/internal/config"
	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// LoadCredentials reads service-account credentials from path when the file
// exists, otherwise from the JSON blob. Having neither is a configuration error.
func LoadCredentials(ctx context.Context, path, blob string) (*google.Credentials, error) {
	var data []byte
	source := ""
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			data, source = raw, path
		case !errors.Is(err, os.ErrNotExist):
			return nil, &config.ConfigurationError{Field: "GOOGLE_CREDENTIALS_FILE", Reason: err.Error()}
		}
	}
	if data == nil && strings.TrimSpace(blob) != "" {
		data, source = []byte(blob), "GOOGLE_CREDENTIALS"
	}
	if data == nil {
		return nil, &config.ConfigurationError{Field: "GOOGLE_CREDENTIALS", Reason: "no google calendar credentials found"}
	}

	creds, err := google.CredentialsFromJSON(ctx, data, gcal.CalendarScope)
	if err != nil {
		return nil, &config.ConfigurationError{Field: source, Reason: fmt.Sprintf("invalid credentials: %v", err)}
	}
	return creds, nil
}

// GoogleProvider reads and writes events on one Google Calendar.
type GoogleProvider struct {
	service    *gcal.Service
	calendarID string
	timezone   string
	logger     *logging.Logger
}

// NewGoogleProvider builds a provider for calendarID. Options carry the
// credentials (option.WithCredentials) or, in tests, an endpoint override.
func NewGoogleProvider(ctx context.Context, calendarID, timezone string, logger *logging.Logger, opts ...option.ClientOption) (*GoogleProvider, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, errors.New("calendar: calendar id is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google service: %w", err)
	}
	logger.Info("google calendar service initialized", "calendar_id", calendarID, "timezone", timezone)
	return &GoogleProvider{
		service:    svc,
		calendarID: calendarID,
		timezone:   timezone,
		logger:     logger,
	}, nil
}

var _ Provider = (*GoogleProvider)(nil)

// ListEvents returns timed events overlapping [timeMin, timeMax). All-day
// events carry no dateTime and are skipped.
func (p *GoogleProvider) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]scheduling.Booking, error) {
	call := p.service.Events.List(p.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	if p.timezone != "" {
		call = call.TimeZone(p.timezone)
	}

	var bookings []scheduling.Booking
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			b, ok, err := bookingFromEvent(item)
			if err != nil {
				return err
			}
			if !ok {
				p.logger.Debug("skipping all-day event", "event_id", item.Id)
				continue
			}
			bookings = append(bookings, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// InsertEvent creates an event spanning the booking's interval.
func (p *GoogleProvider) InsertEvent(ctx context.Context, booking scheduling.Booking) (scheduling.Booking, error) {
	event := &gcal.Event{
		Summary: booking.Title,
		Start: &gcal.EventDateTime{
			DateTime: booking.Start.Format(time.RFC3339),
			TimeZone: p.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: booking.End.Format(time.RFC3339),
			TimeZone: p.timezone,
		},
	}
	created, err := p.service.Events.Insert(p.calendarID, event).Context(ctx).Do()
	if err != nil {
		return scheduling.Booking{}, err
	}
	out, ok, err := bookingFromEvent(created)
	if err != nil || !ok {
		// The provider echoed something unexpected; keep what we asked for.
		booking.ID = created.Id
		return booking, nil
	}
	return out, nil
}

// DeleteEvent removes the event with the given id.
func (p *GoogleProvider) DeleteEvent(ctx context.Context, id string) error {
	return p.service.Events.Delete(p.calendarID, id).Context(ctx).Do()
}

func bookingFromEvent(ev *gcal.Event) (scheduling.Booking, bool, error) {
	if ev == nil || ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
		return scheduling.Booking{}, false, nil
	}
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return scheduling.Booking{}, false, fmt.Errorf("calendar: event %s start: %w", ev.Id, err)
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return scheduling.Booking{}, false, fmt.Errorf("calendar: event %s end: %w", ev.Id, err)
	}
	return scheduling.Booking{
		ID:    ev.Id,
		Title: ev.Summary,
		Start: start,
		End:   end,
	}, true, nil
}
