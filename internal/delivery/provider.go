package delivery

import (
	"fmt"

	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	SendGrid SendGridConfig
	SMTP     SMTPConfig
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg Config, log *logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendGridProvider(cfg.SendGrid)
	case "smtp":
		return NewSMTPProvider(cfg.SMTP)
	case "log":
		return NewLogProvider(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
