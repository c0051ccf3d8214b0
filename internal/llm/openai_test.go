package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/announcement-agent/internal/llm"
)

func TestOpenAIClientCompleteWithTools(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama-3.1-8b-instant",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "generate_professional_email", "arguments": "{\"topic\":\"holiday\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`))
	}))
	defer srv.Close()

	client, err := llm.NewGroqClient("test-key", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "groq", client.Name())

	resp, err := client.Complete(context.Background(), &llm.CompletionRequest{
		Messages: []llm.ChatMessage{{Role: "user", Content: "write an email about the holiday"}},
		Tools: []llm.ToolDefinition{{
			Name:        "generate_professional_email",
			Description: "Draft an email",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "llama-3.1-8b-instant", captured["model"])
	tools, ok := captured["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 1)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "generate_professional_email", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"topic":"holiday"}`, resp.ToolCalls[0].Arguments)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 7, resp.TokensOut)
	assert.Equal(t, "tool_calls", resp.StopReason)
}

func TestNewClientRejectsMissingKeys(t *testing.T) {
	cases := []struct {
		name     string
		provider llm.Provider
	}{
		{name: "groq", provider: llm.ProviderGroq},
		{name: "openai", provider: llm.ProviderOpenAI},
		{name: "anthropic", provider: llm.ProviderAnthropic},
		{name: "unknown", provider: llm.Provider("mistral")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := llm.NewClient(tc.provider, "", "")
			assert.Error(t, err)
		})
	}
}

func TestAnthropicRejectsTools(t *testing.T) {
	client, err := llm.NewAnthropicClient("test-key")
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &llm.CompletionRequest{
		Tools: []llm.ToolDefinition{{Name: "x"}},
	})
	assert.ErrorIs(t, err, llm.ErrToolsUnsupported)
}
