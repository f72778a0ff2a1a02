package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrMailerDisabled — ключ API не задан, письма не отправляются.
var ErrMailerDisabled = errors.New("mailer: api key is not configured")

// Mailer отправляет готовое письмо.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// BrevoMailer — транзакционные письма через HTTP API Brevo (v3/smtp/email).
type BrevoMailer struct {
	url       string
	apiKey    string
	fromEmail string
	fromName  string
	client    *http.Client
}

type BrevoConfig struct {
	URL       string
	APIKey    string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

func NewBrevoMailer(cfg BrevoConfig) *BrevoMailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BrevoMailer{
		url:       cfg.URL,
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    &http.Client{Timeout: timeout},
	}
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// StatusError — ответ API с кодом не 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mailer: unexpected status %d: %s", e.Code, e.Body)
}

// Permanent — повтор не поможет (ошибка в запросе, а не у провайдера).
func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests
}

func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	if m.apiKey == "" {
		return ErrMailerDisabled
	}
	if msg.ToEmail == "" {
		return errors.New("mailer: empty recipient")
	}

	body, err := json.Marshal(brevoRequest{
		Sender:      brevoContact{Email: m.fromEmail, Name: m.fromName},
		To:          []brevoContact{{Email: msg.ToEmail, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("mailer: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}
	req.Header.Set("api-key", m.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
