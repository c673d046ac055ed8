package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultResendURL = "https://api.resend.com"

// ResendMailer sends mail through the Resend HTTP API.
type ResendMailer struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// NewResendMailer creates a mailer; baseURL may be empty for the public API.
func NewResendMailer(apiKey, from, baseURL string) *ResendMailer {
	if baseURL == "" {
		baseURL = defaultResendURL
	}
	return &ResendMailer{
		apiKey:  apiKey,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *ResendMailer) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{msg.To},
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend send to %s: %w", msg.To, err)
	}
	defer resp.Body.Close()

	var out resendResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode >= 400 {
		if out.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, out.Message)
		}
		return fmt.Errorf("resend API error (status %d)", resp.StatusCode)
	}
	return nil
}

func (s *ResendMailer) IsConfigured() bool {
	return s.apiKey != "" && s.from != ""
}

func (s *ResendMailer) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
