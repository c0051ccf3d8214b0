// Package agent runs the model/tool turn loop behind every chat message.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
	"github.com/capitalize-ai/announcement-agent/pkg/metrics"
	"github.com/capitalize-ai/announcement-agent/pkg/tracing"
)

var (
	// ErrModelUnavailable wraps any failure to obtain a model response.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrModelTimeout is returned when a model call exceeds its time budget.
	ErrModelTimeout = errors.New("language model timed out")
	// ErrMaxIterations is returned when the model keeps requesting tools
	// past the iteration bound.
	ErrMaxIterations = errors.New("agent exceeded maximum iterations")
)

// State is a turn loop state.
type State int

const (
	AwaitingModel State = iota
	ExecutingTool
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingModel:
		return "AWAITING_MODEL"
	case ExecutingTool:
		return "EXECUTING_TOOL"
	case Done:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TurnContext is per-turn information given to the model alongside the
// conversation. It is never part of the message history.
type TurnContext struct {
	Recipients   []string
	PendingDraft *model.EmailDraft
}

// Model produces the next assistant message. A message with tool calls
// asks the controller to run them; one without ends the turn.
type Model interface {
	Generate(ctx context.Context, conv *model.Conversation, turn TurnContext) (model.Message, error)
}

// Executor runs a tool invocation and always returns a result payload.
type Executor interface {
	Execute(ctx context.Context, call model.ToolInvocation) (string, error)
}

// Observer is notified of every message appended after the seed.
type Observer func(msg model.Message)

// Config bounds a turn.
type Config struct {
	MaxIterations int
	ModelTimeout  time.Duration
}

// DefaultConfig returns the production bounds.
func DefaultConfig() Config {
	return Config{MaxIterations: 6, ModelTimeout: 60 * time.Second}
}

// Controller drives turns. It holds no per-turn state and is safe for
// concurrent use.
type Controller struct {
	model Model
	tools Executor
	cfg   Config
	log   *logger.Logger
}

// NewController creates a controller.
func NewController(m Model, tools Executor, cfg Config, log *logger.Logger) *Controller {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	return &Controller{model: m, tools: tools, cfg: cfg, log: log.Named("agent")}
}

// Run executes one turn for userMessage and returns the full conversation.
// On error the conversation built so far is still returned.
func (c *Controller) Run(ctx context.Context, userMessage string, turn TurnContext, observe Observer) (*model.Conversation, error) {
	ctx, span := tracing.Tracer("agent").Start(ctx, "agent.turn")
	defer span.End()

	start := time.Now()
	conv := model.NewConversation(userMessage)
	state := AwaitingModel
	iterations := 0

	emit := func(msg model.Message) {
		conv.Append(msg)
		if observe != nil {
			observe(msg)
		}
	}

	finish := func(outcome string, err error) (*model.Conversation, error) {
		metrics.RecordTurn(outcome, time.Since(start).Seconds(), iterations)
		span.SetAttributes(
			attribute.Int("agent.iterations", iterations),
			attribute.String("agent.outcome", outcome),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			c.log.Error("turn failed",
				zap.String("state", state.String()),
				zap.Int("iterations", iterations),
				zap.Error(err),
			)
		}
		return conv, err
	}

	for state != Done {
		switch state {
		case AwaitingModel:
			if iterations >= c.cfg.MaxIterations {
				return finish("max_iterations", fmt.Errorf("%w (%d)", ErrMaxIterations, c.cfg.MaxIterations))
			}
			iterations++

			reply, err := c.generate(ctx, conv, turn)
			if err != nil {
				outcome := "model_error"
				if errors.Is(err, ErrModelTimeout) {
					outcome = "model_timeout"
				}
				return finish(outcome, err)
			}

			reply.Role = model.RoleAssistant
			for i := range reply.ToolCalls {
				if reply.ToolCalls[i].ID == "" {
					reply.ToolCalls[i].ID = "call_" + uuid.NewString()
				}
			}
			emit(reply)

			if reply.HasToolCalls() {
				state = ExecutingTool
			} else {
				state = Done
			}

		case ExecutingTool:
			last, _ := conv.Last()
			for _, call := range last.ToolCalls {
				toolStart := time.Now()
				out, err := c.tools.Execute(ctx, call)
				if err != nil {
					c.log.Warn("tool reported failure",
						zap.String("tool", call.Name),
						zap.String("call_id", call.ID),
						zap.Error(err),
					)
				} else {
					c.log.Info("tool executed",
						zap.String("tool", call.Name),
						zap.String("call_id", call.ID),
						zap.Duration("duration", time.Since(toolStart)),
					)
				}
				emit(model.NewToolResult(call.ID, out))
			}
			state = AwaitingModel
		}
	}

	c.log.Info("turn completed",
		zap.Int("iterations", iterations),
		zap.Int("messages", conv.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return finish("completed", nil)
}

func (c *Controller) generate(ctx context.Context, conv *model.Conversation, turn TurnContext) (model.Message, error) {
	mctx := ctx
	if c.cfg.ModelTimeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, c.cfg.ModelTimeout)
		defer cancel()
	}

	msg, err := c.model.Generate(mctx, conv, turn)
	if err == nil {
		return msg, nil
	}
	if errors.Is(mctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return model.Message{}, fmt.Errorf("%w after %s: %w", ErrModelTimeout, c.cfg.ModelTimeout, err)
	}
	return model.Message{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
}
