// Package intent decides what a chat message asks the agent to do.
package intent

import "strings"

// Kind enumerates the intents the agent understands.
type Kind int

const (
	Unknown Kind = iota
	Draft
	Send
)

func (k Kind) String() string {
	switch k {
	case Draft:
		return "draft"
	case Send:
		return "send"
	default:
		return "unknown"
	}
}

// Intent is the classification of one message. Topic is set for Draft only.
type Intent struct {
	Kind  Kind
	Topic string
}

// Classifier maps a user message to an Intent.
type Classifier interface {
	Classify(message string) Intent
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(message string) Intent

// Classify calls f(message).
func (f ClassifierFunc) Classify(message string) Intent {
	return f(message)
}

var draftPhrases = []string{
	"generate email", "write email", "create email", "email about", "write an email", "make email",
	"compose email", "draft email", "email on", "create a", "write a", "send a", "make a",
	"announcement", "meeting", "holiday", "greeting", "update", "invite", "inform", "notify",
}

var sendPhrases = []string{"send email", "send it", "send the email"}

// KeywordClassifier matches case-insensitive trigger phrases. Drafting
// phrases are checked before sending phrases, so "send a holiday greeting"
// drafts rather than sends.
type KeywordClassifier struct{}

// Classify implements Classifier.
func (KeywordClassifier) Classify(message string) Intent {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, draftPhrases):
		return Intent{Kind: Draft, Topic: ExtractTopic(message)}
	case containsAny(lower, sendPhrases):
		return Intent{Kind: Send}
	default:
		return Intent{Kind: Unknown}
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
