package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/whatsapp-scheduler/internal/conversation"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

var twilioSendTracer = otel.Tracer("scheduler.internal.messaging.twilio_send")

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender posts WhatsApp messages using Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	channel    string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// TwilioOption customizes a TwilioSender.
type TwilioOption func(*TwilioSender)

// WithTwilioBaseURL points the sender at a different API host.
func WithTwilioBaseURL(base string) TwilioOption {
	return func(s *TwilioSender) { s.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) TwilioOption {
	return func(s *TwilioSender) { s.httpClient = c }
}

// NewTwilioSender builds a sender. channel is the address prefix used for
// both sender and recipients ("whatsapp" or "sms").
func NewTwilioSender(accountSID, authToken, from, channel string, logger *logging.Logger, opts ...TwilioOption) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	s := &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		channel:    channel,
		baseURL:    defaultTwilioBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
	s.from = ChannelAddress(channel, from)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ conversation.Messenger = (*TwilioSender)(nil)

// Send dispatches a single message. There is no retry: a failed attempt is
// returned to the caller.
func (s *TwilioSender) Send(ctx context.Context, msg conversation.OutboundMessage) error {
	if s.accountSID == "" || s.authToken == "" {
		return errors.New("messaging: twilio credentials missing")
	}
	if s.from == "" {
		return errors.New("messaging: from required")
	}
	to := ChannelAddress(s.channel, msg.To)
	if to == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(msg.Body) == "" && msg.MediaURL == "" {
		return errors.New("messaging: body or media required")
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.to", to),
		attribute.Bool("scheduler.media", msg.MediaURL != ""),
	)

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", s.from)
	if msg.Body != "" {
		payload.Set("Body", msg.Body)
	}
	if msg.MediaURL != "" {
		payload.Set("MediaUrl", msg.MediaURL)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		span.RecordError(err)
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("messaging: twilio request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("messaging: twilio send failed: %s", formatTwilioError(resp.StatusCode, body))
		span.RecordError(err)
		return err
	}

	var parsed struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &parsed)
	s.logger.Info("twilio message sent", "to", to, "sid", parsed.SID, "status", parsed.Status)
	return nil
}

// SendText sends a plain text message; used for operator notifications.
func (s *TwilioSender) SendText(ctx context.Context, to, body string) error {
	return s.Send(ctx, conversation.OutboundMessage{To: to, Body: body})
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
