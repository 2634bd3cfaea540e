package mailer

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quote-api/internal/common/errors"
	"quote-api/internal/common/logger"
)

// mockMailer records every send and delegates the outcome to sendFunc.
type mockMailer struct {
	mu       sync.Mutex
	sent     []*Email
	sendFunc func(ctx context.Context, email *Email) error
}

func (m *mockMailer) Send(ctx context.Context, email *Email) error {
	m.mu.Lock()
	m.sent = append(m.sent, email)
	m.mu.Unlock()

	if m.sendFunc != nil {
		return m.sendFunc(ctx, email)
	}
	return nil
}

func (m *mockMailer) sentTo(address string) []*Email {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Email
	for _, e := range m.sent {
		if e.To == address {
			out = append(out, e)
		}
	}
	return out
}

func newTestDispatcher(t *testing.T, m Mailer) *Dispatcher {
	t.Helper()
	d := NewDispatcher(m, "devis@piscines-azursud.fr", "contact@piscines-azursud.fr", logger.NewTestLogger(t))
	d.policy.Delay = time.Millisecond
	return d
}

func TestDispatcher_SendsBothEmails(t *testing.T) {
	mock := &mockMailer{}
	d := newTestDispatcher(t, mock)

	ok := d.Dispatch(context.Background(), sanitizedQuote())

	assert.True(t, ok)
	require.Len(t, mock.sent, 2)

	operator := mock.sentTo("contact@piscines-azursud.fr")
	require.Len(t, operator, 1)
	assert.Equal(t, "jean@test.fr", operator[0].ReplyTo)

	customer := mock.sentTo("jean@test.fr")
	require.Len(t, customer, 1)
	assert.Equal(t, "contact@piscines-azursud.fr", customer[0].ReplyTo)

	// Both emails carry the same reference.
	assert.Contains(t, customer[0].HTML, requestIDOf(operator[0]))
}

// requestIDOf pulls the reference out of the operator email body.
func requestIDOf(operator *Email) string {
	const marker = "Nouvelle demande de devis ("
	start := strings.Index(operator.HTML, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.IndexByte(operator.HTML[start:], ')')
	if end < 0 {
		return ""
	}
	return operator.HTML[start : start+end]
}

func TestDispatcher_FailsWhenEitherSendFails(t *testing.T) {
	mock := &mockMailer{
		sendFunc: func(ctx context.Context, email *Email) error {
			if email.To == "jean@test.fr" {
				return errors.NewUpstreamRejectedError("email", 422, "invalid recipient")
			}
			return nil
		},
	}
	d := newTestDispatcher(t, mock)

	ok := d.Dispatch(context.Background(), sanitizedQuote())

	assert.False(t, ok)
	// The operator email was still attempted and delivered.
	assert.Len(t, mock.sentTo("contact@piscines-azursud.fr"), 1)
}

func TestDispatcher_RetriesRetryableFailures(t *testing.T) {
	var mu sync.Mutex
	attempts := map[string]int{}
	mock := &mockMailer{
		sendFunc: func(ctx context.Context, email *Email) error {
			mu.Lock()
			attempts[email.To]++
			n := attempts[email.To]
			mu.Unlock()
			if n < 3 {
				return errors.NewUpstreamError("email", context.DeadlineExceeded)
			}
			return nil
		},
	}
	d := newTestDispatcher(t, mock)

	ok := d.Dispatch(context.Background(), sanitizedQuote())

	assert.True(t, ok)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts["contact@piscines-azursud.fr"])
	assert.Equal(t, 3, attempts["jean@test.fr"])
}

func TestDispatcher_GivesUpAfterAttemptsExhausted(t *testing.T) {
	mock := &mockMailer{
		sendFunc: func(ctx context.Context, email *Email) error {
			return errors.NewUpstreamError("email", context.DeadlineExceeded)
		},
	}
	d := newTestDispatcher(t, mock)

	ok := d.Dispatch(context.Background(), sanitizedQuote())

	assert.False(t, ok)
	// Three attempts per recipient, no more.
	assert.Len(t, mock.sent, 6)
}

// Missing provider wiring fails closed before any send is attempted.
func TestDispatcher_FailsClosedWhenUnconfigured(t *testing.T) {
	tests := []struct {
		name       string
		dispatcher *Dispatcher
	}{
		{
			name:       "nil mailer",
			dispatcher: NewDispatcher(nil, "devis@piscines-azursud.fr", "contact@piscines-azursud.fr", logger.NewNoOpLogger()),
		},
		{
			name:       "missing from address",
			dispatcher: NewDispatcher(&mockMailer{}, "", "contact@piscines-azursud.fr", logger.NewNoOpLogger()),
		},
		{
			name:       "missing contact address",
			dispatcher: NewDispatcher(&mockMailer{}, "devis@piscines-azursud.fr", "", logger.NewNoOpLogger()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.dispatcher.Dispatch(context.Background(), sanitizedQuote()))
		})
	}
}
