package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quote-api/internal/common/config"
	"quote-api/internal/common/errors"
	"quote-api/internal/common/retry"
)

func testEmailConfig(endpoint string) config.EmailConfig {
	return config.EmailConfig{
		Provider:     "http",
		APIKey:       "re_test_key",
		Endpoint:     endpoint,
		FromEmail:    "devis@piscines-azursud.fr",
		ContactEmail: "contact@piscines-azursud.fr",
		Timeout:      2000,
	}
}

func testEmail() *Email {
	return &Email{
		From:    "Piscines Azur Sud <devis@piscines-azursud.fr>",
		To:      "contact@piscines-azursud.fr",
		ReplyTo: "jean@test.fr",
		Subject: "Nouvelle demande de devis - Jean Dupont",
		HTML:    "<p>Bonjour</p>",
	}
}

func TestNewHTTPMailer_RequiresAPIKey(t *testing.T) {
	cfg := testEmailConfig("http://unused")
	cfg.APIKey = ""

	_, err := NewHTTPMailer(cfg)

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeConfigurationMissing, stdErr.Code)
}

func TestHTTPMailer_SendSuccess(t *testing.T) {
	var got Email
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test_key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	m, err := NewHTTPMailer(testEmailConfig(ts.URL))
	require.NoError(t, err)

	require.NoError(t, m.Send(context.Background(), testEmail()))
	assert.Equal(t, "jean@test.fr", got.ReplyTo)
	assert.Equal(t, "contact@piscines-azursud.fr", got.To)
}

func TestHTTPMailer_ErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{name: "server error is retryable", status: http.StatusServiceUnavailable, wantRetryable: true},
		{name: "bad gateway is retryable", status: http.StatusBadGateway, wantRetryable: true},
		{name: "rejected payload is terminal", status: http.StatusUnprocessableEntity, wantRetryable: false},
		{name: "auth failure is terminal", status: http.StatusUnauthorized, wantRetryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			m, err := NewHTTPMailer(testEmailConfig(ts.URL))
			require.NoError(t, err)

			sendErr := m.Send(context.Background(), testEmail())
			require.Error(t, sendErr)
			assert.Equal(t, tt.wantRetryable, errors.IsRetryable(sendErr))
		})
	}
}

func TestHTTPMailer_TimeoutIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	cfg := testEmailConfig(ts.URL)
	cfg.Timeout = 50
	m, err := NewHTTPMailer(cfg)
	require.NoError(t, err)

	sendErr := m.Send(context.Background(), testEmail())
	require.Error(t, sendErr)
	assert.True(t, errors.IsRetryable(sendErr))
}

// Two transient 503 answers followed by a 200 end in success under the
// dispatch retry policy.
func TestHTTPMailer_RecoversUnderRetryPolicy(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	m, err := NewHTTPMailer(testEmailConfig(ts.URL))
	require.NoError(t, err)

	policy := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond, Retryable: errors.IsRetryable}
	sendErr := retry.Do(context.Background(), policy, func(ctx context.Context) error {
		return m.Send(ctx, testEmail())
	})

	assert.NoError(t, sendErr)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPMailer_TerminalErrorNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	m, err := NewHTTPMailer(testEmailConfig(ts.URL))
	require.NoError(t, err)

	policy := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond, Retryable: errors.IsRetryable}
	sendErr := retry.Do(context.Background(), policy, func(ctx context.Context) error {
		return m.Send(ctx, testEmail())
	})

	assert.Error(t, sendErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
