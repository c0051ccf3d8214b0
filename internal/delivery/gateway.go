// Package delivery transmits announcement emails through an external provider.
package delivery

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/pkg/logger"
	"github.com/capitalize-ai/announcement-agent/pkg/metrics"
)

// Provider is an email transmission backend.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Transmit sends one HTML message to one address. Any error means the
	// recipient was not reached.
	Transmit(ctx context.Context, to, subject, html string) error
	// Verify checks credentials and reachability. Called once at startup.
	Verify(ctx context.Context) error
}

// Gateway wraps plain content in the company template and sends it through
// a Provider, one recipient at a time.
type Gateway struct {
	provider Provider
	tmpl     *Template
	timeout  time.Duration
	log      *logger.Logger
}

// NewGateway creates a gateway. timeout bounds each transmission; zero
// disables the bound.
func NewGateway(provider Provider, tmpl *Template, timeout time.Duration, log *logger.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		tmpl:     tmpl,
		timeout:  timeout,
		log:      log.Named("delivery"),
	}
}

// Provider returns the name of the underlying provider.
func (g *Gateway) Provider() string {
	return g.provider.Name()
}

// Verify delegates to the provider.
func (g *Gateway) Verify(ctx context.Context) error {
	return g.provider.Verify(ctx)
}

// Send delivers content to one address and reports success.
func (g *Gateway) Send(ctx context.Context, to, subject, content string) bool {
	html, ok := g.prepare(subject, content)
	if !ok {
		return false
	}
	return g.transmit(ctx, to, subject, html)
}

// SendBatch delivers content to every recipient in order. A failure for one
// address never stops the rest.
func (g *Gateway) SendBatch(ctx context.Context, recipients []string, subject, content string) map[string]bool {
	results := make(map[string]bool, len(recipients))

	html, ok := g.prepare(subject, content)
	for _, to := range recipients {
		if !ok {
			results[to] = false
			continue
		}
		results[to] = g.transmit(ctx, to, subject, html)
	}

	return results
}

func (g *Gateway) prepare(subject, content string) (string, bool) {
	if IsMarkup(content) {
		return content, true
	}
	html, err := g.tmpl.Render(subject, content)
	if err != nil {
		g.log.Error("failed to render email template", zap.Error(err))
		return "", false
	}
	return html, true
}

func (g *Gateway) transmit(ctx context.Context, to, subject, html string) bool {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := g.provider.Transmit(ctx, to, subject, html)
	metrics.RecordDelivery(g.provider.Name(), err == nil)

	if err != nil {
		g.log.Warn("email delivery failed",
			zap.String("provider", g.provider.Name()),
			zap.String("recipient", to),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return false
	}

	g.log.Debug("email delivered",
		zap.String("provider", g.provider.Name()),
		zap.String("recipient", to),
		zap.Duration("duration", time.Since(start)),
	)
	return true
}

// IsMarkup reports whether content is already a full HTML document.
func IsMarkup(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "<!DOCTYPE html>") || strings.HasPrefix(trimmed, "<html")
}
