// Package draft produces announcement email drafts with a language model.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/llm"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

// ErrEmptyTopic is returned when Generate is called without a topic.
var ErrEmptyTopic = errors.New("topic is required")

// DateLayout formats the signature date, e.g. "March 04, 2025".
const DateLayout = "January 02, 2006"

// Config holds generator settings.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// Company is the full company name used in the prompt.
	Company string
	// Signature is the organisation name printed under "CEO".
	Signature string
}

// DefaultConfig returns the settings the service ships with.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.3,
		MaxTokens:   1024,
		Timeout:     60 * time.Second,
		Company:     "TechFlow Solutions",
		Signature:   "TechFlow",
	}
}

// Generator drafts emails.
type Generator struct {
	client llm.Client
	cfg    Config
	log    *logger.Logger
	now    func() time.Time
}

// NewGenerator creates a generator backed by client.
func NewGenerator(client llm.Client, cfg Config, log *logger.Logger) *Generator {
	return &Generator{
		client: client,
		cfg:    cfg,
		log:    log.Named("draft"),
		now:    time.Now,
	}
}

// WithClock overrides the clock used for the signature date.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate asks the model for a draft about topic and returns a JSON object
// string carrying subject and body. Malformed model output is repaired, not
// rejected.
func (g *Generator) Generate(ctx context.Context, topic, extra string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", ErrEmptyTopic
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	date := g.now().Format(DateLayout)
	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(g.cfg.Company, g.cfg.Signature, topic, extra, date)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", g.client.Name(), err)
	}

	g.log.Debug("draft generated",
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)

	return Repair(resp.Content), nil
}
