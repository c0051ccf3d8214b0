package draft

import "fmt"

const systemPrompt = `You are a professional email writing assistant for corporate communications. ` +
	`Always respond with ONLY valid JSON containing 'subject' and 'body' fields. ` +
	`Use \n for line breaks in the body. ` +
	`Example: {"subject": "Subject Here", "body": "Body text here\nWith line breaks"}`

const userTemplate = `You are a professional email assistant for the CEO of %[1]s. Generate a professional, well-structured email about the following topic:

Topic: %[2]s
Additional Context: %[3]s
Today's Date: %[4]s

IMPORTANT REQUIREMENTS:
- Write complete, specific content - NO placeholder text like [Insert location] or [Your Name]
- For meetings, provide specific details like conference room locations, actual meeting links
- End the email with the signature: "CEO\n%[5]s\nDated: %[4]s"
- Do NOT use placeholder signatures like [Your Name] [Your Title] [Company Name]
- Be professional and appropriate for company-wide communication
- Clear and concise with specific actionable information
- Include proper subject line

CRITICAL: You MUST respond with ONLY valid JSON. Use proper JSON escaping for newlines.
For line breaks in the email body, use \n (escaped newline characters).

Format your response exactly like this:
{"subject": "Your subject here", "body": "Your email body here with \n for line breaks"}`

func userPrompt(company, signature, topic, extra, date string) string {
	return fmt.Sprintf(userTemplate, company, topic, extra, date, signature)
}
