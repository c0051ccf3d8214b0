package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/announcement-agent/internal/agent"
	"github.com/capitalize-ai/announcement-agent/internal/intent"
	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/internal/tool"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

type modelMock struct {
	GenerateFunc func(ctx context.Context, conv *model.Conversation, turn agent.TurnContext) (model.Message, error)
	calls        int
}

func (m *modelMock) Generate(ctx context.Context, conv *model.Conversation, turn agent.TurnContext) (model.Message, error) {
	m.calls++
	return m.GenerateFunc(ctx, conv, turn)
}

type drafterMock struct {
	GenerateFunc func(ctx context.Context, topic, extra string) (string, error)
}

func (m *drafterMock) Generate(ctx context.Context, topic, extra string) (string, error) {
	return m.GenerateFunc(ctx, topic, extra)
}

type broadcasterMock struct {
	BroadcastFunc func(ctx context.Context, recipients []string, subject, body string) (*model.SendOutcome, error)
}

func (m *broadcasterMock) Broadcast(ctx context.Context, recipients []string, subject, body string) (*model.SendOutcome, error) {
	return m.BroadcastFunc(ctx, recipients, subject, body)
}

const draftJSON = `{"subject": "Team Meeting Tomorrow", "body": "Please join us at 10am in Room 4B."}`

func newRegistry(d tool.Drafter, b tool.Broadcaster) *tool.Registry {
	return tool.NewRegistry(tool.NewGenerateEmail(d), tool.NewSendEmail(b))
}

func TestScenarioDraftRequest(t *testing.T) {
	var topic string
	drafter := &drafterMock{
		GenerateFunc: func(ctx context.Context, tp, extra string) (string, error) {
			topic = tp
			return draftJSON, nil
		},
	}
	broadcaster := &broadcasterMock{
		BroadcastFunc: func(ctx context.Context, recipients []string, subject, body string) (*model.SendOutcome, error) {
			t.Fatal("send must not be called while drafting")
			return nil, nil
		},
	}

	ctrl := agent.NewController(agent.NewRuleModel(intent.KeywordClassifier{}), newRegistry(drafter, broadcaster), agent.DefaultConfig(), logger.NewNop())

	var observed []model.Role
	conv, err := ctrl.Run(context.Background(), "Create a meeting announcement for tomorrow",
		agent.TurnContext{Recipients: []string{"a@x.com", "b@x.com"}},
		func(msg model.Message) { observed = append(observed, msg.Role) },
	)
	require.NoError(t, err)

	require.Equal(t, 4, conv.Len())
	call := conv.Messages[1].ToolCalls[0]
	assert.Equal(t, tool.GenerateEmail, call.Name)
	assert.Equal(t, "meeting announcement for tomorrow", topic)
	assert.Equal(t, call.ID, conv.Messages[2].ToolCallID)
	assert.Equal(t, []model.Role{model.RoleAssistant, model.RoleTool, model.RoleAssistant}, observed)

	result := agent.Extract(conv)
	assert.NotEmpty(t, result.Response)
	require.NotNil(t, result.EmailDraft)
	assert.JSONEq(t, draftJSON, *result.EmailDraft)
	assert.Nil(t, result.SendResult)
	assert.Equal(t, "Team Meeting Tomorrow", result.PendingEmail["subject"])
}

func TestScenarioSendPendingDraft(t *testing.T) {
	var gotRecipients []string
	broadcaster := &broadcasterMock{
		BroadcastFunc: func(ctx context.Context, recipients []string, subject, body string) (*model.SendOutcome, error) {
			gotRecipients = recipients
			assert.Equal(t, "Team Meeting Tomorrow", subject)
			return model.NewSendOutcome(recipients, map[string]bool{"a@x.com": true, "b@x.com": false}), nil
		},
	}

	ctrl := agent.NewController(agent.NewRuleModel(intent.KeywordClassifier{}), newRegistry(&drafterMock{}, broadcaster), agent.DefaultConfig(), logger.NewNop())

	conv, err := ctrl.Run(context.Background(), "Send it", agent.TurnContext{
		Recipients:   []string{"a@x.com", "b@x.com"},
		PendingDraft: &model.EmailDraft{Subject: "Team Meeting Tomorrow", Body: "Please join us."},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, gotRecipients)

	result := agent.Extract(conv)
	require.NotNil(t, result.SendResult)
	assert.Len(t, result.SendResult.Results, 2)
	failures := 0
	for _, ok := range result.SendResult.Results {
		if !ok {
			failures++
		}
	}
	assert.Equal(t, 2, result.SendResult.SentCount+failures)
	assert.Equal(t, "Email sent successfully to 1 out of 2 employees.", result.Response)
	assert.Nil(t, result.EmailDraft)
}

func TestSendWithoutDraftRepliesWithText(t *testing.T) {
	ctrl := agent.NewController(agent.NewRuleModel(intent.KeywordClassifier{}), newRegistry(&drafterMock{}, &broadcasterMock{}), agent.DefaultConfig(), logger.NewNop())

	conv, err := ctrl.Run(context.Background(), "send it", agent.TurnContext{Recipients: []string{"a@x.com"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, conv.Len())
	assert.Equal(t, agent.ReplyNoDraft, agent.Extract(conv).Response)
}

func TestRunStopsAtIterationBound(t *testing.T) {
	m := &modelMock{
		GenerateFunc: func(ctx context.Context, conv *model.Conversation, turn agent.TurnContext) (model.Message, error) {
			return model.NewAssistantMessage("again", model.ToolInvocation{Name: tool.GenerateEmail, Arguments: map[string]any{"topic": "loop"}}), nil
		},
	}
	drafter := &drafterMock{
		GenerateFunc: func(ctx context.Context, topic, extra string) (string, error) { return draftJSON, nil },
	}

	ctrl := agent.NewController(m, newRegistry(drafter, &broadcasterMock{}), agent.Config{MaxIterations: 3}, logger.NewNop())

	conv, err := ctrl.Run(context.Background(), "write an email about loops", agent.TurnContext{}, nil)
	assert.ErrorIs(t, err, agent.ErrMaxIterations)
	assert.Equal(t, 3, m.calls)
	assert.Equal(t, 7, conv.Len())
}

func TestUnknownToolIsFedBackToModel(t *testing.T) {
	m := &modelMock{}
	m.GenerateFunc = func(ctx context.Context, conv *model.Conversation, turn agent.TurnContext) (model.Message, error) {
		if m.calls == 1 {
			return model.NewAssistantMessage("", model.ToolInvocation{ID: "c1", Name: "launch_rocket"}), nil
		}
		last, _ := conv.Last()
		assert.Equal(t, model.RoleTool, last.Role)
		assert.Contains(t, last.Content, "unknown tool")
		return model.NewAssistantMessage("I can only draft or send emails."), nil
	}

	ctrl := agent.NewController(m, newRegistry(&drafterMock{}, &broadcasterMock{}), agent.DefaultConfig(), logger.NewNop())

	conv, err := ctrl.Run(context.Background(), "launch", agent.TurnContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.calls)

	result := agent.Extract(conv)
	assert.Equal(t, "I can only draft or send emails.", result.Response)
	assert.Nil(t, result.EmailDraft)
	assert.Nil(t, result.SendResult)
}

func TestToolCallsRunInOrder(t *testing.T) {
	m := &modelMock{}
	m.GenerateFunc = func(ctx context.Context, conv *model.Conversation, turn agent.TurnContext) (model.Message, error) {
		if m.calls > 1 {
			return model.NewAssistantMessage("done"), nil
		}
		return model.NewAssistantMessage("",
			model.ToolInvocation{Name: tool.GenerateEmail, Arguments: map[string]any{"topic": "first"}},
			model.ToolInvocation{Name: tool.GenerateEmail, Arguments: map[string]any{"topic": "second"}},
		), nil
	}

	var topics []string
	drafter := &drafterMock{
		GenerateFunc: func(ctx context.Context, topic, extra string) (string, error) {
			topics = append(topics, topic)
			raw, _ := json.Marshal(map[string]string{"subject": topic, "body": "b"})
			return string(raw), nil
		},
	}

	ctrl := agent.NewController(m, newRegistry(drafter, &broadcasterMock{}), agent.DefaultConfig(), logger.NewNop())
	conv, err := ctrl.Run(context.Background(), "two drafts", agent.TurnContext{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, topics)
	calls := conv.Messages[1].ToolCalls
	require.Len(t, calls, 2)
	assert.NotEmpty(t, calls[0].ID)
	assert.NotEqual(t, calls[0].ID, calls[1].ID)
	assert.Equal(t, calls[0].ID, conv.Messages[2].ToolCallID)
	assert.Equal(t, calls[1].ID, conv.Messages[3].ToolCallID)

	assert.Equal(t, "second", agent.Extract(conv).PendingEmail["subject"])
}

func TestModelFailures(t *testing.T) {
	cases := []struct {
		name    string
		timeout time.Duration
		gen     func(ctx context.Context, conv *model.Conversation, turn agent.TurnContext) (model.Message, error)
		want    error
	}{
		{
			name:    "provider error",
			timeout: time.Second,
			gen: func(ctx context.Context, conv *model.Conversation, turn agent.TurnContext) (model.Message, error) {
				return model.Message{}, errors.New("502 bad gateway")
			},
			want: agent.ErrModelUnavailable,
		},
		{
			name:    "timeout",
			timeout: 10 * time.Millisecond,
			gen: func(ctx context.Context, conv *model.Conversation, turn agent.TurnContext) (model.Message, error) {
				<-ctx.Done()
				return model.Message{}, ctx.Err()
			},
			want: agent.ErrModelTimeout,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &modelMock{GenerateFunc: tc.gen}
			ctrl := agent.NewController(m, newRegistry(&drafterMock{}, &broadcasterMock{}), agent.Config{MaxIterations: 6, ModelTimeout: tc.timeout}, logger.NewNop())

			conv, err := ctrl.Run(context.Background(), "hello", agent.TurnContext{}, nil)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 1, conv.Len())
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AWAITING_MODEL", agent.AwaitingModel.String())
	assert.Equal(t, "EXECUTING_TOOL", agent.ExecutingTool.String())
	assert.Equal(t, "DONE", agent.Done.String())
}
