package model

import (
	"fmt"
	"time"
)

// EmailDraft is an unsent subject/body pair.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Valid reports whether both subject and body are non-empty.
func (d EmailDraft) Valid() bool {
	return d.Subject != "" && d.Body != ""
}

// SendOutcome is the result of one batch send.
type SendOutcome struct {
	Success    bool            `json:"success"`
	SentCount  int             `json:"sent_count"`
	TotalCount int             `json:"total_count"`
	Results    map[string]bool `json:"results"`
	Message    string          `json:"message"`
	Timestamp  *time.Time      `json:"timestamp,omitempty"`
}

// NewSendOutcome derives counts and the summary from per-recipient results.
// TotalCount is the number of recipients passed to the send, so duplicate
// addresses count once per occurrence even though results holds one entry.
func NewSendOutcome(recipients []string, results map[string]bool) *SendOutcome {
	sent := 0
	for _, ok := range results {
		if ok {
			sent++
		}
	}
	total := len(recipients)

	return &SendOutcome{
		Success:    true,
		SentCount:  sent,
		TotalCount: total,
		Results:    results,
		Message:    fmt.Sprintf("Email sent successfully to %d out of %d employees.", sent, total),
	}
}

// EmailSendRequest is the request body for a direct send.
type EmailSendRequest struct {
	Subject        string   `json:"subject"`
	Body           string   `json:"body"`
	EmployeeEmails []string `json:"employee_emails"`
}

// RecentEmail is a persisted send record.
type RecentEmail struct {
	ID           int64     `json:"id"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Recipients   []string  `json:"recipients"`
	SentAt       time.Time `json:"sent_at"`
	SuccessCount int       `json:"success_count"`
	TotalCount   int       `json:"total_count"`
}

// TurnEvent summarizes one finished chat turn for the audit feed.
type TurnEvent struct {
	ID         string    `json:"id"`
	Outcome    string    `json:"outcome"`
	Drafted    bool      `json:"drafted"`
	Sent       bool      `json:"sent"`
	Recipients int       `json:"recipients"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
