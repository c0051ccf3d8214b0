// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capitalize-ai/announcement-agent/pkg/metrics"
)

// ErrToolsUnsupported is returned when a request carries tool definitions
// for a provider that cannot call tools.
var ErrToolsUnsupported = errors.New("provider does not support tool calling")

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	Tools       []ToolDefinition
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a tool request returned by the model. Arguments is raw JSON.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition describes a callable tool with a JSON schema for its arguments.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	ToolCalls  []ToolCall
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGroq      Provider = "groq"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// NewClient creates a new LLM client based on provider. baseURL overrides the
// provider default for OpenAI-compatible endpoints and is ignored otherwise.
func NewClient(provider Provider, apiKey, baseURL string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, baseURL)
	case ProviderGroq:
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		return NewGroqClient(apiKey, baseURL)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

func observe(provider string, start time.Time, resp *CompletionResponse, err error) {
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordLLMRequest(provider, "", "error", elapsed, 0, 0)
		return
	}
	metrics.RecordLLMRequest(provider, resp.Model, "success", elapsed, resp.TokensIn, resp.TokensOut)
}
