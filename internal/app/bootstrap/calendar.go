package bootstrap

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/wolfman30/whatsapp-scheduler/internal/calendar"
	appconfig "github.com/wolfman30/whatsapp-scheduler/internal/config"
	"github.com/wolfman30/whatsapp-scheduler/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// BuildCalendarProvider returns the configured calendar, instrumented with
// tracing, metrics and logs.
func BuildCalendarProvider(ctx context.Context, cfg *appconfig.Config, m *metrics.MessagingMetrics, logger *logging.Logger, opts ...option.ClientOption) (calendar.Provider, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var provider calendar.Provider
	switch cfg.CalendarProvider {
	case "memory":
		logger.Warn("using in-memory calendar; bookings are lost on restart")
		provider = calendar.NewMemoryProvider()
	case "google":
		if len(opts) == 0 {
			creds, err := calendar.LoadCredentials(ctx, cfg.GoogleCredentialsFile, cfg.GoogleCredentialsJSON)
			if err != nil {
				return nil, err
			}
			opts = append(opts, option.WithCredentials(creds))
		}
		google, err := calendar.NewGoogleProvider(ctx, cfg.CalendarID, cfg.Timezone, logger, opts...)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: google calendar: %w", err)
		}
		logger.Info("google calendar service initialized", "calendar_id", cfg.CalendarID)
		provider = google
	default:
		return nil, &appconfig.ConfigurationError{Field: "CALENDAR_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", cfg.CalendarProvider)}
	}
	return calendar.Instrument(provider, m, logger), nil
}
