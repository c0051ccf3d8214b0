package draft_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/announcement-agent/internal/draft"
	"github.com/capitalize-ai/announcement-agent/internal/llm"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

type clientMock struct {
	CompleteFunc func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (m *clientMock) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return m.CompleteFunc(ctx, req)
}

func (m *clientMock) Name() string     { return "mock" }
func (m *clientMock) Models() []string { return nil }

func TestRepair(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty output",
			input: "",
			want:  `{"subject": "", "body": ""}`,
		},
		{
			name:  "clean object is re-serialized",
			input: `{"subject": "Holiday", "body": "Office closed Friday."}`,
			want:  `{"body":"Office closed Friday.","subject":"Holiday"}`,
		},
		{
			name:  "object wrapped in prose",
			input: "Sure! Here it is:\n{\"subject\": \"Hi\", \"body\": \"Hello team\"}\nLet me know.",
			want:  `{"body":"Hello team","subject":"Hi"}`,
		},
		{
			name:  "escaped newlines become control characters and fail strict parsing",
			input: `{"subject": "Update", "body": "Line one\nLine two"}`,
			want:  `{"subject": "Update", "body": "Line one\nLine two"}`,
		},
		{
			name:  "unparseable braces returned verbatim",
			input: `prefix {subject: Update, body: missing quotes} suffix`,
			want:  `{subject: Update, body: missing quotes}`,
		},
		{
			name:  "greedy match spans from first to last brace",
			input: `{"a": 1} and {"b": 2}`,
			want:  `{"a": 1} and {"b": 2}`,
		},
		{
			name:  "html is not escaped",
			input: `{"subject": "Q&A", "body": "<b>bold</b>"}`,
			want:  `{"body":"<b>bold</b>","subject":"Q&A"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, draft.Repair(tc.input))
		})
	}
}

func TestRepairFallbackWrapsPlainText(t *testing.T) {
	raw := "Dear team,\n\tThe \"new\" office opens Monday.\r\nPath: C:\\docs\fend\bx"

	out := draft.Repair(raw)

	var parsed struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, draft.FallbackSubject, parsed.Subject)
	assert.Equal(t, raw, parsed.Body)
}

func TestRepairRoundTripPreservesDraft(t *testing.T) {
	original := map[string]string{
		"subject": "Quarterly Update",
		"body":    "Team, results are in.",
	}
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(draft.Repair(string(raw))), &got))
	assert.Equal(t, original, got)
}

func TestGeneratorGenerate(t *testing.T) {
	var captured *llm.CompletionRequest
	client := &clientMock{
		CompleteFunc: func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			captured = req
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return &llm.CompletionResponse{Content: `{"subject": "Team Meeting", "body": "See you at 10."}`}, nil
		},
	}

	gen := draft.NewGenerator(client, draft.DefaultConfig(), logger.NewNop()).
		WithClock(func() time.Time { return time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC) })

	out, err := gen.Generate(context.Background(), "team meeting", "room 4B")
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject": "Team Meeting", "body": "See you at 10."}`, out)

	require.NotNil(t, captured)
	assert.InDelta(t, 0.3, captured.Temperature, 1e-9)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	prompt := captured.Messages[1].Content
	assert.Contains(t, prompt, "Topic: team meeting")
	assert.Contains(t, prompt, "Additional Context: room 4B")
	assert.Contains(t, prompt, `CEO\nTechFlow\nDated: March 04, 2025`)
	assert.Contains(t, prompt, "TechFlow Solutions")
}

func TestGeneratorErrors(t *testing.T) {
	client := &clientMock{
		CompleteFunc: func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("rate limited")
		},
	}
	gen := draft.NewGenerator(client, draft.DefaultConfig(), logger.NewNop())

	_, err := gen.Generate(context.Background(), "  ", "")
	assert.ErrorIs(t, err, draft.ErrEmptyTopic)

	_, err = gen.Generate(context.Background(), "holiday", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
