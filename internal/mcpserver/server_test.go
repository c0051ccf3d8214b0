package mcpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/announcement-agent/internal/mcpserver"
	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/internal/tool"
)

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

func connect(t *testing.T, d tool.Drafter, b tool.Broadcaster) (context.Context, *mcp.ClientSession) {
	t.Helper()

	server := mcpserver.NewServer(tool.NewRegistry(tool.NewGenerateEmail(d), tool.NewSendEmail(b)))
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSession.Close() })

	return ctx, clientSession
}

func TestListTools(t *testing.T) {
	ctx, session := connect(t, &drafterMock{}, &broadcasterMock{})

	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tl := range res.Tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{tool.GenerateEmail, tool.SendEmail}, names)
}

func TestGenerateEmail(t *testing.T) {
	var gotTopic, gotExtra string
	d := &drafterMock{GenerateFunc: func(_ context.Context, topic, extra string) (string, error) {
		gotTopic, gotExtra = topic, extra
		return `{"body":"Dear Team,\n\nPizza Friday.","subject":"Pizza Friday"}`, nil
	}}
	ctx, session := connect(t, d, &broadcasterMock{})

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool.GenerateEmail,
		Arguments: tool.GenerateArgs{Topic: "pizza friday", Context: "in the atrium"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "generate failed: %v", result.Content)

	var draft mcpserver.DraftResponse
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &draft))
	assert.Equal(t, "Pizza Friday", draft.Subject)
	assert.Equal(t, "Dear Team,\n\nPizza Friday.", draft.Body)
	assert.Equal(t, "pizza friday", gotTopic)
	assert.Equal(t, "in the atrium", gotExtra)
}

func TestSendEmail(t *testing.T) {
	b := &broadcasterMock{BroadcastFunc: func(_ context.Context, recipients []string, _, _ string) (*model.SendOutcome, error) {
		return model.NewSendOutcome(recipients, map[string]bool{"a@x.com": true, "b@x.com": false}), nil
	}}
	ctx, session := connect(t, &drafterMock{}, b)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: tool.SendEmail,
		Arguments: tool.SendArgs{
			EmployeeEmails: []string{"a@x.com", "b@x.com"},
			Subject:        "Offsite",
			EmailBody:      "See you",
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "send failed: %v", result.Content)

	var out mcpserver.SendResponse
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &out))
	assert.True(t, out.Success)
	assert.Equal(t, 1, out.SentCount)
	assert.Equal(t, 2, out.TotalCount)
	assert.Equal(t, "Email sent successfully to 1 out of 2 employees.", out.Message)
}

func TestGenerateEmailFailure(t *testing.T) {
	d := &drafterMock{GenerateFunc: func(context.Context, string, string) (string, error) {
		return "", errors.New("model offline")
	}}
	ctx, session := connect(t, d, &broadcasterMock{})

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool.GenerateEmail,
		Arguments: tool.GenerateArgs{Topic: "anything"},
	})
	if err == nil {
		require.NotNil(t, result)
		assert.True(t, result.IsError)
	}
}
