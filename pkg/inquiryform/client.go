package inquiryform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medhive-backend/pkg/contract"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StatusError means the server answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string // server's "error" text, if any
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inquiry endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("inquiry endpoint returned %d: %s", e.StatusCode, e.Message)
}

// NetworkError means the request never got a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "inquiry request failed: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Client posts inquiries to the contact endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitInquiry sends req with idempotencyKey (may be empty).
func (c *Client) SubmitInquiry(ctx context.Context, req contract.InquiryRequest, idempotencyKey string) (contract.SuccessBody, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return contract.SuccessBody{}, fmt.Errorf("failed to encode inquiry: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+contract.Path, bytes.NewReader(body))
	if err != nil {
		return contract.SuccessBody{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if idempotencyKey != "" {
		httpReq.Header.Set(contract.IdempotencyHeader, idempotencyKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return contract.SuccessBody{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return contract.SuccessBody{}, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody contract.ErrorBody
		_ = json.Unmarshal(raw, &errBody)
		return contract.SuccessBody{}, &StatusError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var ok contract.SuccessBody
	_ = json.Unmarshal(raw, &ok)
	return ok, nil
}
