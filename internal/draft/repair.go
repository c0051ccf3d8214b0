package draft

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// EmptyDraft is returned when the model produced no content at all.
const EmptyDraft = `{"subject": "", "body": ""}`

// FallbackSubject is used when the model output contains no JSON object.
const FallbackSubject = "Company Communication"

var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

var controlUnescaper = strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t")

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// Repair turns raw model output into a JSON object string with subject and
// body fields, degrading step by step:
//
//  1. empty output yields EmptyDraft;
//  2. the greedy first-brace-to-last-brace span is located;
//  3. with literal \n, \r and \t turned into control characters, the span
//     is parsed and re-serialized, or returned verbatim if parsing fails;
//  4. without a span, the whole output becomes the body of a synthetic
//     object with FallbackSubject.
func Repair(content string) string {
	if content == "" {
		return EmptyDraft
	}

	match := objectPattern.FindString(content)
	if match == "" {
		return `{"subject": "` + FallbackSubject + `", "body": "` + stringEscaper.Replace(content) + `"}`
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(controlUnescaper.Replace(match)), &parsed); err != nil {
		return match
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(parsed); err != nil {
		return match
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
