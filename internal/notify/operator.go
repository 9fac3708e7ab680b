package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// TextSender delivers a plain text chat message to a recipient.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

// Notice is a message for the human operator.
type Notice struct {
	Subject string
	Body    string
}

// OperatorNotifier relays forwarded customer messages to the human
// operator: always over chat, plus an e-mail copy when an address is set.
type OperatorNotifier struct {
	chat      TextSender
	email     EmailSender
	recipient string
	emailTo   string
	logger    *logging.Logger
}

// NewOperatorNotifier builds a notifier. email and emailTo are optional.
func NewOperatorNotifier(chat TextSender, email EmailSender, recipient, emailTo string, logger *logging.Logger) *OperatorNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &OperatorNotifier{
		chat:      chat,
		email:     email,
		recipient: strings.TrimSpace(recipient),
		emailTo:   strings.TrimSpace(emailTo),
		logger:    logger,
	}
}

// Notify sends n to the operator. The chat delivery error is returned; a
// failed e-mail copy is only logged.
func (n *OperatorNotifier) Notify(ctx context.Context, notice Notice) error {
	if n.chat == nil || n.recipient == "" {
		return errors.New("notify: operator chat recipient not configured")
	}
	chatErr := n.chat.SendText(ctx, n.recipient, notice.Body)
	if chatErr != nil {
		n.logger.Error("notify: operator chat delivery failed", "error", chatErr, "to", n.recipient)
		chatErr = fmt.Errorf("notify: operator chat: %w", chatErr)
	}

	if n.email != nil && n.emailTo != "" {
		if err := n.email.Send(ctx, EmailMessage{
			To:      n.emailTo,
			Subject: notice.Subject,
			Body:    notice.Body,
		}); err != nil {
			n.logger.Warn("notify: operator email copy failed", "error", err, "to", n.emailTo)
		}
	}
	return chatErr
}
