package intent

import "strings"

// DefaultTopic is used when the message is empty.
const DefaultTopic = "General company communication"

var explicitPatterns = []string{
	"write an email about", "write email about", "email about",
	"write an email on", "write email on", "email on",
	"create email about", "create email on",
	"make email about", "make email on",
	"compose email about", "compose email on",
	"draft email about", "draft email on",
	"generate email about", "generate email on",
}

var barePatterns = []string{
	"write email", "create email", "make email", "compose email", "draft email", "generate email",
}

var naturalPatterns = []string{
	"create a", "write a", "send a", "make a", "make an", "create an", "write an",
}

// ExtractTopic pulls the subject of a drafting request out of message. The
// pattern groups are tried in priority order; the first pattern present whose
// trailing text is non-empty wins. The result is lowercased.
func ExtractTopic(message string) string {
	lower := strings.ToLower(message)

	for _, group := range [][]string{explicitPatterns, barePatterns, naturalPatterns} {
		for _, p := range group {
			if topic, ok := after(lower, p); ok {
				return topic
			}
		}
	}

	if strings.Contains(lower, "announce") {
		phrase := "announce"
		if strings.Contains(lower, "announce that") {
			phrase = "announce that"
		}
		if topic, ok := after(lower, phrase); ok {
			return topic
		}
	}

	if lower == "" {
		return DefaultTopic
	}
	return lower
}

// after returns the trimmed text following the last occurrence of pattern.
func after(s, pattern string) (string, bool) {
	i := strings.LastIndex(s, pattern)
	if i < 0 {
		return "", false
	}
	topic := strings.TrimSpace(s[i+len(pattern):])
	return topic, topic != ""
}
