package delivery

import (
	"bytes"
	_ "embed"
	"html/template"
	"strings"
	"time"
)

//go:embed template.html
var templateSource string

// Template renders plain-text bodies into the decorative company email.
type Template struct {
	tmpl    *template.Template
	company string
	now     func() time.Time
}

type templateData struct {
	Company    string
	Subject    string
	Paragraphs [][]string
	Year       int
}

// NewTemplate parses the embedded email template.
func NewTemplate(company string) (*Template, error) {
	tmpl, err := template.New("email").Parse(templateSource)
	if err != nil {
		return nil, err
	}
	return &Template{tmpl: tmpl, company: company, now: time.Now}, nil
}

// Render splits body into paragraphs on blank lines, keeps single line
// breaks inside a paragraph, and HTML-escapes all text.
func (t *Template) Render(subject, body string) (string, error) {
	var buf bytes.Buffer
	err := t.tmpl.Execute(&buf, templateData{
		Company:    t.company,
		Subject:    subject,
		Paragraphs: paragraphs(body),
		Year:       t.now().Year(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func paragraphs(body string) [][]string {
	var out [][]string
	for _, p := range strings.Split(strings.TrimSpace(body), "\n\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, strings.Split(p, "\n"))
	}
	return out
}
