package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"quote-api/internal/common/config"
	"quote-api/internal/common/errors"
	"quote-api/internal/common/httpx"
)

// HTTPMailer posts emails to a Resend-style transactional HTTP API.
type HTTPMailer struct {
	endpoint string
	apiKey   string
	client   *httpx.Client
}

func NewHTTPMailer(cfg config.EmailConfig) (*HTTPMailer, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigurationError("email provider API key")
	}
	return &HTTPMailer{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   httpx.NewClient(config.GetDuration(cfg.Timeout)),
	}, nil
}

// Send delivers one email. A 5xx answer or a network failure (timeouts
// included) comes back retryable; any other non-2xx answer is terminal.
func (m *HTTPMailer) Send(ctx context.Context, email *Email) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.DoWithContext(ctx, req)
	if err != nil {
		if isTimeout(err) {
			return errors.NewUpstreamTimeoutError("email", err)
		}
		return errors.NewUpstreamError("email", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode >= 500 {
		return errors.NewUpstreamError("email", fmt.Errorf("provider returned %d: %s", resp.StatusCode, body))
	}
	return errors.NewUpstreamRejectedError("email", resp.StatusCode, string(body))
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	for e := err; e != nil; {
		if t, ok := e.(timeout); ok && t.Timeout() {
			return true
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := e.(unwrapper)
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}
