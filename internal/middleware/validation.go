package middleware

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Request field limits.
const (
	MaxMessageLength = 2000
	MaxSubjectLength = 200
	MaxRecipients    = 1000
)

// ValidateChatMessage validates a chat message.
func ValidateChatMessage(message string) error {
	if !utf8.ValidString(message) {
		return errors.New("message must be valid UTF-8")
	}
	if strings.TrimSpace(message) == "" {
		return errors.New("message cannot be empty")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	}
	return nil
}

// ValidateSubject validates an email subject.
func ValidateSubject(subject string) error {
	if !utf8.ValidString(subject) {
		return errors.New("subject must be valid UTF-8")
	}
	if strings.TrimSpace(subject) == "" {
		return errors.New("subject cannot be empty")
	}
	if utf8.RuneCountInString(subject) > MaxSubjectLength {
		return fmt.Errorf("subject exceeds %d characters", MaxSubjectLength)
	}
	return nil
}

// ValidateBody validates an email body.
func ValidateBody(body string) error {
	if !utf8.ValidString(body) {
		return errors.New("body must be valid UTF-8")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("body cannot be empty")
	}
	return nil
}

// ValidateRecipients checks that every entry is a bare email address.
func ValidateRecipients(recipients []string, required bool) error {
	if required && len(recipients) == 0 {
		return errors.New("at least one employee email is required")
	}
	if len(recipients) > MaxRecipients {
		return fmt.Errorf("too many recipients (max %d)", MaxRecipients)
	}
	for _, r := range recipients {
		addr, err := mail.ParseAddress(r)
		if err != nil || addr.Address != r {
			return fmt.Errorf("invalid email address: %q", r)
		}
	}
	return nil
}
