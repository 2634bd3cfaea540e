package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_requests_total",
			Help: "Total number of quote requests by outcome",
		},
		[]string{"status"},
	)

	RateLimitDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quote_rate_limit_denied_total",
			Help: "Total number of quote requests denied by the rate limiter",
		},
	)

	CaptchaFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quote_captcha_failures_total",
			Help: "Total number of failed CAPTCHA verifications",
		},
	)

	EmailSendAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_email_send_attempts_total",
			Help: "Total number of email delivery attempts by recipient kind and result",
		},
		[]string{"recipient", "result"},
	)

	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "quote_request_duration_seconds",
			Help: "Duration of quote request processing in seconds",
		},
	)
)
