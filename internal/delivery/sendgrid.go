package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SendGridBaseURL is the public SendGrid API root.
const SendGridBaseURL = "https://api.sendgrid.com"

// SendGridConfig configures the SendGrid provider.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// BaseURL overrides SendGridBaseURL, mainly for tests.
	BaseURL string
	Timeout time.Duration
}

// SendGridProvider sends through the SendGrid v3 mail/send endpoint.
type SendGridProvider struct {
	cfg    SendGridConfig
	client *http.Client
}

// NewSendGridProvider creates a SendGrid provider.
func NewSendGridProvider(cfg SendGridConfig) (*SendGridProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("SendGrid API key is required")
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = "noreply@company.com"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = SendGridBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &SendGridProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				ForceAttemptHTTP2:   true,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 8,
			},
		},
	}, nil
}

// Name implements Provider.
func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridMail struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
}

// Transmit implements Provider. Only 202 Accepted counts as delivered.
func (p *SendGridProvider) Transmit(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(sendgridMail{
		Personalizations: []sendgridPersonalization{{To: []sendgridAddress{{Email: to}}}},
		From:             sendgridAddress{Email: p.cfg.FromEmail, Name: p.cfg.FromName},
		Subject:          subject,
		Content:          []sendgridContent{{Type: "text/html", Value: html}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return statusError("send", resp)
	}
	return nil
}

// Verify implements Provider by listing the API key's scopes.
func (p *SendGridProvider) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/v3/scopes", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("verify", resp)
	}

	var body struct {
		Scopes []string `json:"scopes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode scopes: %w", err)
	}
	for _, s := range body.Scopes {
		if s == "mail.send" {
			return nil
		}
	}
	return errors.New("sendgrid API key lacks the mail.send scope")
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if reqID := resp.Header.Get("X-Message-Id"); reqID != "" {
		return fmt.Errorf("sendgrid %s failed: %s message_id=%s body=%s", op, resp.Status, reqID, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("sendgrid %s failed: %s body=%s", op, resp.Status, strings.TrimSpace(string(body)))
}
