// Package service provides business logic for the announcement agent.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/agent"
	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

// Recent email limits.
const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

var (
	// ErrNoRecipients is returned when a send has an empty recipient list.
	ErrNoRecipients = errors.New("at least one recipient is required")
	// ErrEmptyDraft is returned when subject or body is empty.
	ErrEmptyDraft = errors.New("subject and body are required")
)

// Sender delivers one email to many recipients.
type Sender interface {
	SendBatch(ctx context.Context, recipients []string, subject, content string) map[string]bool
}

// History persists sent emails.
type History interface {
	Record(ctx context.Context, rec *model.RecentEmail) error
	Recent(ctx context.Context, limit int) ([]model.RecentEmail, error)
}

// EventPublisher receives a summary of every chat turn.
type EventPublisher interface {
	PublishTurn(ctx context.Context, event *model.TurnEvent) error
}

// Runner executes one agent turn.
type Runner interface {
	Run(ctx context.Context, message string, turn agent.TurnContext, observe agent.Observer) (*model.Conversation, error)
}

// EmailService is the entry point for chat turns and direct sends.
type EmailService struct {
	sender  Sender
	history History
	runner  Runner
	events  EventPublisher
	logger  *logger.Logger
	now     func() time.Time
}

// NewEmailService creates a new email service. The agent is attached with
// WithAgent once the tool layer, which depends on this service, is built.
func NewEmailService(sender Sender, history History, log *logger.Logger) *EmailService {
	return &EmailService{
		sender:  sender,
		history: history,
		logger:  log.Named("service"),
		now:     time.Now,
	}
}

// WithAgent sets the turn runner used by ProcessChatMessage.
func (s *EmailService) WithAgent(r Runner) *EmailService {
	s.runner = r
	return s
}

// WithEvents sets an optional turn event publisher.
func (s *EmailService) WithEvents(p EventPublisher) *EmailService {
	s.events = p
	return s
}

// Broadcast sends one email to every recipient and records the batch.
// Per-recipient failures are part of the outcome, not an error.
func (s *EmailService) Broadcast(ctx context.Context, recipients []string, subject, body string) (*model.SendOutcome, error) {
	results := s.sender.SendBatch(ctx, recipients, subject, body)
	outcome := model.NewSendOutcome(recipients, results)

	ts := s.now()
	outcome.Timestamp = &ts

	rec := &model.RecentEmail{
		Subject:      subject,
		Body:         body,
		Recipients:   recipients,
		SentAt:       ts,
		SuccessCount: outcome.SentCount,
		TotalCount:   outcome.TotalCount,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.logger.Error("failed to record sent email", zap.Error(err))
	}

	s.logger.Info("email batch sent",
		zap.Int64("record_id", rec.ID),
		zap.Int("sent", outcome.SentCount),
		zap.Int("total", outcome.TotalCount),
	)

	return outcome, nil
}

// SendEmailToEmployees sends a caller-supplied subject and body directly,
// bypassing the agent.
func (s *EmailService) SendEmailToEmployees(ctx context.Context, subject, body string, recipients []string) (*model.SendOutcome, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if subject == "" || body == "" {
		return nil, ErrEmptyDraft
	}
	return s.Broadcast(ctx, recipients, subject, body)
}

// GetRecentEmails returns up to limit sent emails, newest first. Limits
// outside 1..MaxRecentLimit are clamped.
func (s *EmailService) GetRecentEmails(ctx context.Context, limit int) ([]model.RecentEmail, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}

	emails, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent emails: %w", err)
	}
	return emails, nil
}
