package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quote-api/internal/captcha"
	"quote-api/internal/common/logger"
	"quote-api/internal/common/metrics"
	"quote-api/internal/common/observability"
	"quote-api/internal/mailer"
	"quote-api/internal/quote"
	"quote-api/internal/ratelimit"
)

// User-visible messages stay generic French sentences. Diagnostics go to the
// logs only.
const (
	msgSuccess         = "Votre demande a bien été envoyée. Nous vous recontacterons sous 24 heures ouvrées."
	msgTooManyRequests = "Trop de demandes. Veuillez réessayer plus tard."
	msgInvalidRequest  = "La requête est invalide."
	msgInvalidFields   = "Certains champs sont invalides."
	msgCaptchaFailed   = "La vérification anti-robot a échoué. Veuillez réessayer."
	msgServerError     = "Une erreur est survenue. Veuillez réessayer plus tard."
)

const maxBodyBytes = 64 << 10 // generous for a contact form

// QuoteHandler orchestrates the submission pipeline: rate check, body shape,
// CAPTCHA, field validation, sanitization, dispatch. Strictly sequential, the
// first failure short-circuits to an error response.
type QuoteHandler struct {
	limiter    *ratelimit.Limiter
	verifier   *captcha.Verifier
	dispatcher *mailer.Dispatcher
	obs        *observability.Observability
	logger     logger.Logger
}

func NewQuoteHandler(
	limiter *ratelimit.Limiter,
	verifier *captcha.Verifier,
	dispatcher *mailer.Dispatcher,
	obs *observability.Observability,
	log logger.Logger,
) *QuoteHandler {
	return &QuoteHandler{
		limiter:    limiter,
		verifier:   verifier,
		dispatcher: dispatcher,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"handler": "quote"}),
	}
}

func (h *QuoteHandler) Handle(c *gin.Context) {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.QuoteRequestsTotal.WithLabelValues(status).Inc()
		metrics.RequestDuration.Observe(time.Since(start).Seconds())
		h.obs.RecordRequest(c.Request.Context(), status)
		h.obs.RecordRequestDuration(c.Request.Context(), time.Since(start), status)
	}()

	ctx := c.Request.Context()

	// 1. Rate check. Denied attempts are not recorded against the quota.
	clientKey := ClientKey(c)
	if !h.limiter.Allow(ctx, clientKey) {
		status = "rate_limited"
		metrics.RateLimitDeniedTotal.Inc()
		h.logger.Warn("rate limit exceeded", map[string]interface{}{"clientKey": clientKey})
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      msgTooManyRequests,
			"retryAfter": int(h.limiter.Window().Seconds()),
		})
		return
	}

	// 2. Body shape. Structural errors are logged verbatim but the client
	// only sees the generic message.
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		status = "bad_request"
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}
	if err := quote.CheckShape(body); err != nil {
		status = "bad_request"
		h.logger.Warn("malformed request body", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	var req quote.QuoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		status = "bad_request"
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	// 3. CAPTCHA. Enforced only when a secret is configured AND a token was
	// supplied. A configured secret with no token means the internal wizard
	// flow, which does not collect one; the request passes unverified. This
	// carve-out is a deliberate policy decision, kept as-is.
	if h.verifier.Enabled() && req.CaptchaToken != "" {
		if !h.verifier.Verify(ctx, req.CaptchaToken) {
			status = "captcha_failed"
			metrics.CaptchaFailuresTotal.Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": msgCaptchaFailed})
			return
		}
	}

	// 4. Field validation, collecting every violation.
	result := quote.Validate(&req)
	if !result.Valid {
		status = "validation_failed"
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   msgInvalidFields,
			"details": result.Errors,
		})
		return
	}

	// 5. Sanitization. Validation passing implies this succeeds; if the two
	// ever drift the cause is still client data, so answer 400.
	sanitized, err := quote.SanitizeFormData(&req)
	if err != nil {
		status = "validation_failed"
		h.logger.Error("sanitize failed after successful validation", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidFields})
		return
	}

	// 6. Dispatch both notification emails.
	if !h.dispatcher.Dispatch(ctx, sanitized) {
		status = "dispatch_failed"
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerError})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msgSuccess,
	})
}
