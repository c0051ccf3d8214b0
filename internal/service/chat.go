package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/agent"
	"github.com/capitalize-ai/announcement-agent/internal/model"
)

// ApologyReply is returned when a turn fails.
const ApologyReply = "I'm sorry, I wasn't able to complete that request. Please try again."

// ProcessChatMessage runs one agent turn for message. It always returns a
// well-formed result; turn failures become ApologyReply.
func (s *EmailService) ProcessChatMessage(ctx context.Context, message string, recipients []string, pending *model.EmailDraft) model.ChatResult {
	return s.ProcessChatMessageStream(ctx, message, recipients, pending, nil)
}

// ProcessChatMessageStream is ProcessChatMessage with an observer notified of
// every message the turn appends.
func (s *EmailService) ProcessChatMessageStream(ctx context.Context, message string, recipients []string, pending *model.EmailDraft, observe agent.Observer) model.ChatResult {
	start := time.Now()
	turnID := uuid.NewString()
	log := s.logger.With(zap.String("turn_id", turnID))

	if s.runner == nil {
		log.Error("chat turn without an agent")
		return failedResult(pending)
	}

	conv, err := s.runner.Run(ctx, message, agent.TurnContext{
		Recipients:   recipients,
		PendingDraft: pending,
	}, observe)

	outcome := "completed"
	var result model.ChatResult
	if err != nil {
		outcome = turnOutcome(err)
		log.Error("chat turn failed", zap.String("outcome", outcome), zap.Error(err))
		result = failedResult(pending)
	} else {
		result = agent.Extract(conv)
		if result.EmailDraft == nil && result.SendResult == nil && pending != nil && pending.Valid() {
			result.PendingEmail = map[string]string{"subject": pending.Subject, "body": pending.Body}
		}
	}

	s.publishTurn(ctx, &model.TurnEvent{
		ID:         turnID,
		Outcome:    outcome,
		Drafted:    result.EmailDraft != nil,
		Sent:       result.SendResult != nil,
		Recipients: len(recipients),
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  s.now(),
	})

	return result
}

func (s *EmailService) publishTurn(ctx context.Context, event *model.TurnEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTurn(ctx, event); err != nil {
		s.logger.Warn("failed to publish turn event", zap.String("turn_id", event.ID), zap.Error(err))
	}
}

func failedResult(pending *model.EmailDraft) model.ChatResult {
	result := model.ChatResult{Response: ApologyReply, PendingEmail: map[string]string{}}
	if pending != nil && pending.Valid() {
		result.PendingEmail = map[string]string{"subject": pending.Subject, "body": pending.Body}
	}
	return result
}

func turnOutcome(err error) string {
	switch {
	case errors.Is(err, agent.ErrModelTimeout):
		return "model_timeout"
	case errors.Is(err, agent.ErrMaxIterations):
		return "max_iterations"
	case errors.Is(err, agent.ErrModelUnavailable):
		return "model_error"
	default:
		return "error"
	}
}
