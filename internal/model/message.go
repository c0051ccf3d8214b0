package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolInvocation is a tool call requested by the language model.
type ToolInvocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message represents a single entry in a conversation turn.
type Message struct {
	// Content
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Set on assistant messages that request tools.
	ToolCalls []ToolInvocation `json:"tool_calls,omitempty"`

	// Set on tool messages; correlates the result with its invocation.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// LLM Metadata (nullable for non-assistant messages)
	Model     *string `json:"model,omitempty"`
	TokensIn  *int    `json:"tokens_in,omitempty"`
	TokensOut *int    `json:"tokens_out,omitempty"`
	LatencyMs *int64  `json:"latency_ms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasToolCalls reports whether the message requests at least one tool.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

// NewAssistantMessage creates an assistant message with optional tool calls.
func NewAssistantMessage(content string, calls ...ToolInvocation) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls, CreatedAt: time.Now()}
}

// NewToolResult creates a tool message answering the invocation with the given ID.
func NewToolResult(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID, CreatedAt: time.Now()}
}

// HeartbeatEvent keeps an idle chat stream open.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
