package agent

import (
	"encoding/json"

	"github.com/capitalize-ai/announcement-agent/internal/model"
)

// Extract derives the caller-facing result of a finished turn.
//
// The reply is the last assistant message. The draft and the send outcome
// come from the last tool result of the matching shape; when a turn produced
// several, the latest one wins. Tool results that are not JSON objects are
// ignored.
func Extract(conv *model.Conversation) model.ChatResult {
	result := model.ChatResult{PendingEmail: map[string]string{}}

	for _, msg := range conv.Messages {
		if msg.Role != model.RoleTool {
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(msg.Content), &fields); err != nil {
			continue
		}

		switch {
		case has(fields, "subject", "body"):
			draft := msg.Content
			result.EmailDraft = &draft
			result.PendingEmail = flatten(fields)
		case has(fields, "sent_count", "total_count"):
			var outcome model.SendOutcome
			if err := json.Unmarshal([]byte(msg.Content), &outcome); err != nil {
				continue
			}
			result.SendResult = &outcome
		}
	}

	if reply, ok := conv.LastOfRole(model.RoleAssistant); ok {
		result.Response = reply.Content
	}

	return result
}

func has(fields map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}

func flatten(fields map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(fields))
	for k, raw := range fields {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out[k] = s
			continue
		}
		out[k] = string(raw)
	}
	return out
}
