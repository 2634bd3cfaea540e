package mailer

import (
	"context"
	"sync"
	"time"

	"quote-api/internal/common/errors"
	"quote-api/internal/common/logger"
	"quote-api/internal/common/metrics"
	"quote-api/internal/common/retry"
	"quote-api/internal/quote"
)

// Dispatcher renders and sends the operator notification and the customer
// acknowledgment for one sanitized quote.
type Dispatcher struct {
	mailer       Mailer
	fromEmail    string
	contactEmail string
	logger       logger.Logger
	policy       retry.Policy

	// now is swappable for tests.
	now func() time.Time
}

func NewDispatcher(m Mailer, fromEmail, contactEmail string, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		mailer:       m,
		fromEmail:    fromEmail,
		contactEmail: contactEmail,
		logger:       log,
		policy: retry.Policy{
			// One initial try plus two retries on 5xx/timeout, 1s apart.
			MaxAttempts: 3,
			Delay:       time.Second,
			Retryable:   errors.IsRetryable,
		},
		now: time.Now,
	}
}

// Dispatch sends both emails concurrently and reports whether both succeeded.
// Missing provider credentials or destination address fail closed without
// attempting delivery. Neither send aborts the other; the caller cannot tell
// which of the two failed.
func (d *Dispatcher) Dispatch(ctx context.Context, q *quote.SanitizedQuote) bool {
	if d.mailer == nil || d.fromEmail == "" || d.contactEmail == "" {
		d.logger.Error("email dispatch not configured, dropping notification", map[string]interface{}{
			"hasMailer":  d.mailer != nil,
			"hasFrom":    d.fromEmail != "",
			"hasContact": d.contactEmail != "",
		})
		return false
	}

	requestID := NewRequestID(d.now())
	operatorEmail := RenderOperatorEmail(q, requestID, d.fromEmail, d.contactEmail)
	customerEmail := RenderCustomerEmail(q, requestID, d.fromEmail, d.contactEmail)

	var wg sync.WaitGroup
	var operatorOK, customerOK bool

	wg.Add(2)
	go func() {
		defer wg.Done()
		operatorOK = d.send(ctx, "operator", requestID, operatorEmail)
	}()
	go func() {
		defer wg.Done()
		customerOK = d.send(ctx, "customer", requestID, customerEmail)
	}()
	wg.Wait()

	return operatorOK && customerOK
}

func (d *Dispatcher) send(ctx context.Context, kind, requestID string, email *Email) bool {
	err := retry.Do(ctx, d.policy, func(ctx context.Context) error {
		return d.mailer.Send(ctx, email)
	})
	if err != nil {
		metrics.EmailSendAttemptsTotal.WithLabelValues(kind, "failure").Inc()
		d.logger.WithError(errors.NewEmailSendFailedError(kind, err)).Error("email delivery failed", map[string]interface{}{
			"requestId": requestID,
			"recipient": kind,
		})
		return false
	}

	metrics.EmailSendAttemptsTotal.WithLabelValues(kind, "success").Inc()
	d.logger.Info("email delivered", map[string]interface{}{
		"requestId": requestID,
		"recipient": kind,
	})
	return true
}
