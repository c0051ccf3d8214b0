package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capitalize-ai/announcement-agent/internal/intent"
	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/internal/tool"
)

// Canned replies of the rule-driven model.
const (
	ReplyDrafting    = "I'll help you generate a professional email. Let me create that for you."
	ReplySending     = "I'll send the email to all employees now."
	ReplyNoDraft     = "There is no drafted email to send yet. Ask me to write one first."
	ReplyNoRecipient = "Please add at least one employee email address before sending."
	ReplyDraftReady  = "Here is your draft. Review it and say \"send it\" when you're ready."
	ReplyHelp        = "I am an email agent specialized in writing and sending professional emails. I can help you:\n\n" +
		"• Generate professional emails for company communications\n" +
		"• Write emails about meetings, announcements, holidays, etc.\n" +
		"• Send emails to your employees\n\n" +
		"Please ask me to write or send an email, and I'll be happy to help!"
)

// RuleModel answers from an intent classifier instead of a language model.
// After any tool result it replies with text, so every turn ends within two
// model calls.
type RuleModel struct {
	classifier intent.Classifier
}

// NewRuleModel creates a rule-driven model.
func NewRuleModel(c intent.Classifier) *RuleModel {
	return &RuleModel{classifier: c}
}

// Generate implements Model.
func (m *RuleModel) Generate(_ context.Context, conv *model.Conversation, turn TurnContext) (model.Message, error) {
	if last, ok := conv.Last(); ok && last.Role == model.RoleTool {
		return model.NewAssistantMessage(summarize(last.Content)), nil
	}

	user, _ := conv.LastOfRole(model.RoleUser)
	in := m.classifier.Classify(user.Content)

	switch in.Kind {
	case intent.Draft:
		return model.NewAssistantMessage(ReplyDrafting, model.ToolInvocation{
			ID:        "generate_email_call",
			Name:      tool.GenerateEmail,
			Arguments: map[string]any{"topic": in.Topic, "context": ""},
		}), nil

	case intent.Send:
		if turn.PendingDraft == nil || !turn.PendingDraft.Valid() {
			return model.NewAssistantMessage(ReplyNoDraft), nil
		}
		if len(turn.Recipients) == 0 {
			return model.NewAssistantMessage(ReplyNoRecipient), nil
		}
		return model.NewAssistantMessage(ReplySending, model.ToolInvocation{
			ID:   "send_email_call",
			Name: tool.SendEmail,
			Arguments: map[string]any{
				"employee_emails": turn.Recipients,
				"subject":         turn.PendingDraft.Subject,
				"email_body":      turn.PendingDraft.Body,
			},
		}), nil

	default:
		return model.NewAssistantMessage(ReplyHelp), nil
	}
}

func summarize(result string) string {
	var fields struct {
		Error     string `json:"error"`
		Message   string `json:"message"`
		Subject   string `json:"subject"`
		SentCount *int   `json:"sent_count"`
	}
	if err := json.Unmarshal([]byte(result), &fields); err != nil {
		return ReplyDraftReady
	}

	switch {
	case fields.Error != "":
		return fmt.Sprintf("Sorry, something went wrong: %s", fields.Error)
	case fields.SentCount != nil:
		return fields.Message
	default:
		return ReplyDraftReady
	}
}
