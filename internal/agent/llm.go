package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/llm"
	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/internal/tool"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

const routerPrompt = `You are an email agent for %s that writes and sends professional company emails.

Use generate_professional_email when the user asks you to write, draft or create an email or announcement.
Use send_email_to_employees only when the user asks to send an email that has already been drafted.
Otherwise answer briefly and explain what you can do. After a tool returns, summarize the result for the user in one or two sentences.`

// LLMModel lets a tool-calling language model choose the next action.
type LLMModel struct {
	client  llm.Client
	tools   []llm.ToolDefinition
	model   string
	company string
	log     *logger.Logger
}

// NewLLMModel creates a model-driven router. tools are offered on every call.
func NewLLMModel(client llm.Client, tools []llm.ToolDefinition, modelName, company string, log *logger.Logger) *LLMModel {
	return &LLMModel{
		client:  client,
		tools:   tools,
		model:   modelName,
		company: company,
		log:     log.Named("router"),
	}
}

// Generate implements Model.
func (m *LLMModel) Generate(ctx context.Context, conv *model.Conversation, turn TurnContext) (model.Message, error) {
	messages := make([]llm.ChatMessage, 0, conv.Len()+1)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: m.systemPrompt(turn)})
	for _, msg := range conv.Messages {
		messages = append(messages, toChatMessage(msg))
	}

	resp, err := m.client.Complete(ctx, &llm.CompletionRequest{
		Model:       m.model,
		Messages:    messages,
		Temperature: 0.2,
		Tools:       m.tools,
	})
	if err != nil {
		return model.Message{}, err
	}

	calls := make([]model.ToolInvocation, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		args := map[string]any{}
		if tc.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
				m.log.Warn("model sent malformed tool arguments",
					zap.String("tool", tc.Name),
					zap.Error(err),
				)
			}
		}
		if tc.Name == tool.SendEmail {
			fillSendArgs(args, turn)
		}
		calls = append(calls, model.ToolInvocation{ID: tc.ID, Name: tc.Name, Arguments: args})
	}

	msg := model.NewAssistantMessage(resp.Content, calls...)
	msg.Model = &resp.Model
	msg.TokensIn = &resp.TokensIn
	msg.TokensOut = &resp.TokensOut
	msg.LatencyMs = &resp.LatencyMs
	return msg, nil
}

func (m *LLMModel) systemPrompt(turn TurnContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, routerPrompt, m.company)

	if len(turn.Recipients) > 0 {
		fmt.Fprintf(&b, "\n\nEmployee recipients: %s", strings.Join(turn.Recipients, ", "))
	} else {
		b.WriteString("\n\nNo employee recipients have been provided yet; do not send.")
	}
	if d := turn.PendingDraft; d != nil && d.Valid() {
		fmt.Fprintf(&b, "\n\nCurrent draft awaiting confirmation:\nSubject: %s\nBody:\n%s", d.Subject, d.Body)
	}
	return b.String()
}

// fillSendArgs supplies recipients and the pending draft when the model left
// them out. The caller-supplied recipient list is authoritative.
func fillSendArgs(args map[string]any, turn TurnContext) {
	if len(turn.Recipients) > 0 {
		args["employee_emails"] = turn.Recipients
	}
	if d := turn.PendingDraft; d != nil {
		if s, _ := args["subject"].(string); s == "" {
			args["subject"] = d.Subject
		}
		if s, _ := args["email_body"].(string); s == "" {
			args["email_body"] = d.Body
		}
	}
}

func toChatMessage(msg model.Message) llm.ChatMessage {
	out := llm.ChatMessage{
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
	}
	for _, call := range msg.ToolCalls {
		raw, _ := json.Marshal(call.Arguments)
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: call.ID, Name: call.Name, Arguments: string(raw)})
	}
	return out
}
