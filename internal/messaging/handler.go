// Package messaging is the Twilio edge of the assistant: the inbound
// webhook and the outbound delivery gateway.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/whatsapp-scheduler/internal/conversation"
	"github.com/wolfman30/whatsapp-scheduler/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

var twilioTracer = otel.Tracer("scheduler.internal.messaging.twilio")

// emptyTwiML acknowledges the webhook without an inline reply; replies go
// out through the REST API.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// DefaultAssistantName names the bot when no assistant name is configured.
const DefaultAssistantName = "IAIÁ"

// HealthMessage is the GET / confirmation for the named assistant.
func HealthMessage(assistant string) string {
	return assistant + " WhatsApp Bot is running!"
}

// DefaultProcessTimeout bounds the work done for one inbound message.
const DefaultProcessTimeout = 60 * time.Second

// Processor runs an inbound message to completion.
type Processor interface {
	Handle(ctx context.Context, msg conversation.InboundMessage) error
}

// Handler handles messaging webhook requests.
type Handler struct {
	processor      Processor
	webhookSecret  string
	publicBaseURL  string
	processTimeout time.Duration
	healthMessage  string
	metrics        *metrics.MessagingMetrics
	logger         *logging.Logger
}

// HandlerConfig carries the optional webhook settings.
type HandlerConfig struct {
	// WebhookSecret enables X-Twilio-Signature validation when set.
	WebhookSecret string
	// PublicBaseURL is the externally visible origin used to rebuild the
	// signed URL behind proxies.
	PublicBaseURL  string
	ProcessTimeout time.Duration
	// AssistantName is shown on GET /.
	AssistantName string
}

// NewHandler creates a new messaging handler.
func NewHandler(cfg HandlerConfig, processor Processor, m *metrics.MessagingMetrics, logger *logging.Logger) *Handler {
	if processor == nil {
		panic("messaging: processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = DefaultProcessTimeout
	}
	if strings.TrimSpace(cfg.AssistantName) == "" {
		cfg.AssistantName = DefaultAssistantName
	}
	return &Handler{
		processor:      processor,
		webhookSecret:  cfg.WebhookSecret,
		publicBaseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		processTimeout: cfg.ProcessTimeout,
		healthMessage:  HealthMessage(strings.TrimSpace(cfg.AssistantName)),
		metrics:        m,
		logger:         logger,
	}
}

// Webhook handles POST /webhook. The message is processed before the
// response is written; Twilio only receives an empty TwiML document.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	status := http.StatusOK
	defer func() {
		h.metrics.ObserveWebhookLatency(fmt.Sprint(status), time.Since(started).Seconds())
	}()

	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.webhook")
	defer span.End()

	if h.webhookSecret != "" && !ValidateTwilioSignature(r, h.webhookSecret, h.webhookURL(r)) {
		status = http.StatusUnauthorized
		h.logger.Warn("invalid twilio signature")
		span.RecordError(errors.New("invalid twilio signature"))
		http.Error(w, "Unauthorized", status)
		return
	}

	webhook, err := ParseWebhook(r)
	if err != nil || webhook.From == "" || webhook.Body == "" {
		if err == nil {
			err = errors.New("missing Body or From")
		}
		status = http.StatusBadRequest
		h.logger.Warn("invalid webhook payload", "error", err)
		span.RecordError(err)
		http.Error(w, "Invalid request", status)
		return
	}
	span.SetAttributes(
		attribute.String("scheduler.twilio.message_sid", webhook.MessageSid),
		attribute.String("scheduler.twilio.from", webhook.From),
	)
	h.logger.Info("received message", "from", webhook.From, "message_sid", webhook.MessageSid)

	if err := h.process(ctx, webhook); err != nil {
		status = http.StatusInternalServerError
		h.logger.Error("error in webhook", "error", err, "from", webhook.From)
		span.RecordError(err)
		http.Error(w, "Server Error", status)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(emptyTwiML))
}

// process runs the processor detached from the request's cancellation, so a
// Twilio-side timeout does not abort a half-done booking.
func (h *Handler) process(ctx context.Context, webhook *WebhookRequest) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("messaging: panic while processing message: %v", rec)
		}
	}()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.processTimeout)
	defer cancel()
	return h.processor.Handle(ctx, conversation.InboundMessage{
		From:       webhook.From,
		Body:       webhook.Body,
		ReceivedAt: time.Now(),
	})
}

// HealthCheck serves GET / with a static confirmation.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.healthMessage))
}

// Status serves GET /health as JSON.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) webhookURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL + r.URL.RequestURI()
	}
	return buildAbsoluteURL(r)
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
