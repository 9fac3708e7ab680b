package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

type stubSendGrid struct {
	resp *rest.Response
	err  error
	sent []*mail.SGMailV3
}

func (s *stubSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, email)
	return s.resp, s.err
}

type stubSES struct {
	err   error
	input *sesv2.SendEmailInput
}

func (s *stubSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	s.input = params
	if s.err != nil {
		return nil, s.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "iaia@example.com"}, nil)
	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "iaia@example.com"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != DefaultFromName {
		t.Errorf("expected default from name %q, got %q", DefaultFromName, sender.fromName)
	}
}

func TestSendGridSender_Send(t *testing.T) {
	api := &stubSendGrid{resp: &rest.Response{StatusCode: 202}}
	sender := &SendGridSender{client: api, fromEmail: "iaia@example.com", fromName: "IAIÁ", logger: logging.Default()}

	err := sender.Send(context.Background(), EmailMessage{To: "claudia@example.com", Subject: "Novo pedido", Body: "oi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(api.sent))
	}
	if api.sent[0].Subject != "Novo pedido" {
		t.Errorf("unexpected subject %q", api.sent[0].Subject)
	}
}

func TestSendGridSender_Send_ErrorStatus(t *testing.T) {
	sender := &SendGridSender{client: &stubSendGrid{resp: &rest.Response{StatusCode: 401, Body: "unauthorized"}}, logger: logging.Default()}

	if err := sender.Send(context.Background(), EmailMessage{To: "claudia@example.com"}); err == nil {
		t.Error("expected error for 401 response")
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	if err := sender.Send(context.Background(), EmailMessage{To: "claudia@example.com"}); err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestSESSender_Send(t *testing.T) {
	api := &stubSES{}
	sender := NewSESSender(api, SESConfig{FromEmail: "iaia@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "claudia@example.com", Subject: "Novo pedido", Body: "oi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(api.input.FromEmailAddress); got != "IAIÁ <iaia@example.com>" {
		t.Errorf("unexpected from address %q", got)
	}
	if api.input.Content.Simple.Body.Text == nil || api.input.Content.Simple.Body.Html != nil {
		t.Error("expected text body only")
	}
}

func TestSESSender_Send_Error(t *testing.T) {
	sender := NewSESSender(&stubSES{err: errors.New("throttled")}, SESConfig{FromEmail: "iaia@example.com"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "claudia@example.com"}); err == nil {
		t.Error("expected error from SES")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender without client")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	if err := NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "claudia@example.com"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}
