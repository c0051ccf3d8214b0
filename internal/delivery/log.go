package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

// LogProvider records messages instead of sending them. Every transmission
// succeeds.
type LogProvider struct {
	log *logger.Logger
}

// NewLogProvider creates a dry-run provider.
func NewLogProvider(log *logger.Logger) *LogProvider {
	return &LogProvider{log: log.Named("dry-run")}
}

// Name implements Provider.
func (p *LogProvider) Name() string {
	return "log"
}

// Transmit implements Provider.
func (p *LogProvider) Transmit(_ context.Context, to, subject, html string) error {
	p.log.Info("email not sent (dry run)",
		zap.String("recipient", to),
		zap.String("subject", subject),
		zap.Int("html_bytes", len(html)),
	)
	return nil
}

// Verify implements Provider.
func (p *LogProvider) Verify(context.Context) error {
	return nil
}
