package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/whatsapp-scheduler/cmd/mainconfig"
	"github.com/wolfman30/whatsapp-scheduler/internal/api/router"
	"github.com/wolfman30/whatsapp-scheduler/internal/app/bootstrap"
	"github.com/wolfman30/whatsapp-scheduler/internal/booking"
	appconfig "github.com/wolfman30/whatsapp-scheduler/internal/config"
	"github.com/wolfman30/whatsapp-scheduler/internal/conversation"
	"github.com/wolfman30/whatsapp-scheduler/internal/messaging"
	"github.com/wolfman30/whatsapp-scheduler/internal/notify"
	"github.com/wolfman30/whatsapp-scheduler/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

func main() {
	if err := appconfig.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := appconfig.Load()

	logger, err := logging.NewWithFile(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting whatsapp scheduler",
		"env", cfg.Env,
		"port", cfg.Port,
		"calendar", cfg.CalendarProvider,
		"extractor", cfg.Extractor(),
	)

	ctx := context.Background()
	metricsHandler, messagingMetrics := setupMessagingMetrics()

	a, err := buildApp(ctx, cfg, messagingMetrics, metricsHandler, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.close(logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: messaging.DefaultProcessTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}
	logger.Info("server stopped")
}

// setupMessagingMetrics registers the assistant metrics on a dedicated
// registry and returns the handler that exposes it.
func setupMessagingMetrics() (http.Handler, *metrics.MessagingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMessagingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) close(logger *logging.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}

// buildApp wires every collaborator behind the HTTP router.
func buildApp(ctx context.Context, cfg *appconfig.Config, m *metrics.MessagingMetrics, metricsHandler http.Handler, logger *logging.Logger, twilioOpts ...messaging.TwilioOption) (*app, error) {
	a := &app{}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var awsCfg aws.Config
	if bootstrap.NeedsAWS(cfg) {
		awsCfg, err = mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
	}

	provider, err := bootstrap.BuildCalendarProvider(ctx, cfg, m, logger)
	if err != nil {
		return nil, err
	}
	scheduler := booking.NewService(provider, loc, logger, booking.WithWindow(scheduling.CalendarWindow{
		OpenHour:   cfg.OpenHour,
		CloseHour:  cfg.CloseHour,
		SlotLength: time.Duration(cfg.SlotMinutes) * time.Minute,
	}))

	extractor, closeExtractor, err := bootstrap.BuildExtractor(ctx, cfg, awsCfg, loc, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeExtractor)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
	}
	greetings := bootstrap.BuildGreetingTracker(redisClient, cfg, logger)

	sender := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioChannel, logger, twilioOpts...)
	recipient := messaging.ChannelAddress(cfg.TwilioChannel, cfg.ForwardRecipient)
	operator := notify.NewOperatorNotifier(sender, bootstrap.BuildEmailSender(cfg, awsCfg, logger), recipient, cfg.ForwardEmail, logger)

	dispatcher := conversation.NewDispatcher(conversation.Settings{
		PriceListURL:    cfg.PriceListURL,
		OwnerName:       cfg.OwnerName,
		AssistantName:   cfg.AssistantName,
		GreetingEnabled: cfg.GreetingEnabled,
		GreetingDelay:   cfg.GreetingDelay,
	}, sender, scheduler, extractor,
		conversation.WithOperator(operator),
		conversation.WithGreetingTracker(greetings),
		conversation.WithMetrics(m),
		conversation.WithLogger(logger),
	)

	messagingHandler := messaging.NewHandler(messaging.HandlerConfig{
		WebhookSecret: cfg.TwilioWebhookSecret,
		PublicBaseURL: cfg.PublicBaseURL,
		AssistantName: cfg.AssistantName,
	}, dispatcher, m, logger)

	a.handler = router.New(&router.Config{
		Logger:           logger,
		MessagingHandler: messagingHandler,
		MetricsHandler:   metricsHandler,
	})
	return a, nil
}
