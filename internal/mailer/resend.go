package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const resendAPIURL = "https://api.resend.com/emails"

type ResendConfig struct {
	APIKey   string
	From     string
	Endpoint string // defaults to the public Resend API
}

// ResendSender posts messages to the Resend HTTP API.
type ResendSender struct {
	cfg    ResendConfig
	client *http.Client
}

func NewResendSender(cfg ResendConfig) *ResendSender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = resendAPIURL
	}
	return &ResendSender{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

type resendMessage struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (r *ResendSender) Send(ctx context.Context, to, subject, textBody string) error {
	payload, err := json.Marshal(resendMessage{From: r.cfg.From, To: []string{to}, Subject: subject, Text: textBody})
	if err != nil {
		return fmt.Errorf("resend: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return resendStatusError(resp.StatusCode, resp.Body)
}

func resendStatusError(status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	var e resendError
	if json.Unmarshal(raw, &e) == nil && e.Message != "" {
		return fmt.Errorf("resend: status=%d %s: %s", status, e.Name, e.Message)
	}
	return fmt.Errorf("resend: status=%d body=%s", status, strings.TrimSpace(string(raw)))
}
