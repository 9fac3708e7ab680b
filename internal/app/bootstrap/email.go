package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/whatsapp-scheduler/internal/config"
	"github.com/wolfman30/whatsapp-scheduler/internal/notify"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// BuildEmailSender returns the sender for operator e-mail copies, or nil
// when FORWARD_EMAIL is not set.
func BuildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ForwardEmail == "" {
		return nil
	}
	switch cfg.EmailProvider {
	case "ses":
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	logger.Warn("email provider not configured; operator email copies are logged only", "provider", cfg.EmailProvider)
	return notify.NewStubEmailSender(logger)
}
