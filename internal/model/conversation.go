// Package model defines data structures for the announcement agent.
package model

// Conversation is the ordered message log of a single agent turn.
// Messages are only ever appended.
type Conversation struct {
	Messages []Message `json:"messages"`
}

// NewConversation seeds a conversation with one user message.
func NewConversation(userMessage string) *Conversation {
	return &Conversation{
		Messages: []Message{NewUserMessage(userMessage)},
	}
}

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// LastOfRole returns the most recent message with the given role.
func (c *Conversation) LastOfRole(role Role) (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == role {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// ChatRequest is the request body for a chat message.
type ChatRequest struct {
	Message        string      `json:"message"`
	EmployeeEmails []string    `json:"employee_emails,omitempty"`
	PendingEmail   *EmailDraft `json:"pending_email,omitempty"`
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Response     string            `json:"response"`
	EmailDraft   *string           `json:"email_draft"`
	SendResult   *SendOutcome      `json:"send_result"`
	PendingEmail map[string]string `json:"pending_email"`
}
