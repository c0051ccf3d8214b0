package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/capitalize-ai/announcement-agent/internal/llm"
	"github.com/capitalize-ai/announcement-agent/internal/model"
)

// Tool names as seen by the language model.
const (
	GenerateEmail = "generate_professional_email"
	SendEmail     = "send_email_to_employees"
)

// Drafter produces a draft as a JSON object string with subject and body.
type Drafter interface {
	Generate(ctx context.Context, topic, extra string) (string, error)
}

// Broadcaster delivers one email to a list of recipients.
type Broadcaster interface {
	Broadcast(ctx context.Context, recipients []string, subject, body string) (*model.SendOutcome, error)
}

// GenerateArgs are the arguments of GenerateEmail.
type GenerateArgs struct {
	Topic   string `json:"topic" jsonschema:"the main topic or subject of the email"`
	Context string `json:"context,omitempty" jsonschema:"additional context or details for the email"`
}

// SendArgs are the arguments of SendEmail.
type SendArgs struct {
	EmployeeEmails []string `json:"employee_emails" jsonschema:"list of employee email addresses"`
	Subject        string   `json:"subject" jsonschema:"email subject line"`
	EmailBody      string   `json:"email_body" jsonschema:"email body content"`
}

// NewGenerateEmail returns the drafting tool.
func NewGenerateEmail(d Drafter) Tool {
	return Tool{
		Definition: llm.ToolDefinition{
			Name:        GenerateEmail,
			Description: "Generate a professional email for company communications. Returns JSON with 'subject' and 'body' fields.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic":   map[string]any{"type": "string", "description": "The main topic or subject of the email"},
					"context": map[string]any{"type": "string", "description": "Additional context or details for the email"},
				},
				"required": []string{"topic"},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			var in GenerateArgs
			if err := decodeArgs(args, &in); err != nil {
				return errorResult("Failed to generate email: invalid arguments: " + err.Error()), err
			}
			if strings.TrimSpace(in.Topic) == "" {
				err := errors.New("topic is required")
				return errorResult("Failed to generate email: " + err.Error()), err
			}

			out, err := d.Generate(ctx, in.Topic, in.Context)
			if err != nil {
				return errorResult("Failed to generate email: " + err.Error()), err
			}
			return out, nil
		},
	}
}

type sendResult struct {
	Success    bool            `json:"success"`
	SentCount  int             `json:"sent_count"`
	TotalCount int             `json:"total_count"`
	Results    map[string]bool `json:"results"`
	Message    string          `json:"message"`
}

type sendFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewSendEmail returns the sending tool.
func NewSendEmail(b Broadcaster) Tool {
	return Tool{
		Definition: llm.ToolDefinition{
			Name:        SendEmail,
			Description: "Send the generated email to all employees. Returns JSON with sending results.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"employee_emails": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of employee email addresses",
					},
					"subject":    map[string]any{"type": "string", "description": "Email subject line"},
					"email_body": map[string]any{"type": "string", "description": "Email body content"},
				},
				"required": []string{"employee_emails", "subject", "email_body"},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			var in SendArgs
			if err := decodeArgs(args, &in); err != nil {
				return sendError(fmt.Errorf("invalid arguments: %w", err))
			}
			switch {
			case len(in.EmployeeEmails) == 0:
				return sendError(errors.New("no recipients"))
			case in.Subject == "" || in.EmailBody == "":
				return sendError(errors.New("subject and body are required"))
			}

			outcome, err := b.Broadcast(ctx, in.EmployeeEmails, in.Subject, in.EmailBody)
			if err != nil {
				return sendError(err)
			}

			raw, err := json.Marshal(sendResult{
				Success:    outcome.Success,
				SentCount:  outcome.SentCount,
				TotalCount: outcome.TotalCount,
				Results:    outcome.Results,
				Message:    outcome.Message,
			})
			if err != nil {
				return sendError(err)
			}
			return string(raw), nil
		},
	}
}

func sendError(err error) (string, error) {
	raw, _ := json.Marshal(sendFailure{Error: "Failed to send emails: " + err.Error()})
	return string(raw), err
}
