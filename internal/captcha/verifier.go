// Package captcha confirms that a submission was not scripted by calling the
// reCAPTCHA verification endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"quote-api/internal/common/config"
	"quote-api/internal/common/httpx"
	"quote-api/internal/common/logger"
)

// verifyResponse is the provider's answer. Only the success flag matters;
// error codes are logged for diagnostics.
type verifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

type Verifier struct {
	secretKey string
	verifyURL string
	client    *httpx.Client
	logger    logger.Logger
}

func NewVerifier(cfg config.CaptchaConfig, log logger.Logger) *Verifier {
	return &Verifier{
		secretKey: cfg.SecretKey,
		verifyURL: cfg.VerifyURL,
		client:    httpx.NewClient(config.GetDuration(cfg.Timeout)),
		logger:    log,
	}
}

// Enabled reports whether a server-side secret is configured. Without one,
// CAPTCHA enforcement is disabled rather than being a hard failure.
func (v *Verifier) Enabled() bool {
	return v.secretKey != ""
}

// Verify checks token against the verification endpoint. Every failure mode
// collapses to false so the caller has a single branch: empty token, missing
// secret, non-2xx answer, unsuccessful verdict, network error or timeout.
// It never returns an error.
func (v *Verifier) Verify(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	if v.secretKey == "" {
		// Deployment misconfiguration, not a user error.
		v.logger.Error("captcha secret not configured, rejecting verification", nil)
		return false
	}

	form := url.Values{}
	form.Set("secret", v.secretKey)
	form.Set("response", token)

	req, err := http.NewRequest(http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		v.logger.Error("captcha request build failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.DoWithContext(ctx, req)
	if err != nil {
		v.logger.Warn("captcha verification call failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		v.logger.Warn("captcha verifier returned non-2xx", map[string]interface{}{"status": resp.StatusCode})
		return false
	}

	var verdict verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		v.logger.Warn("captcha response decode failed", map[string]interface{}{"error": err.Error()})
		return false
	}

	if !verdict.Success {
		v.logger.Info("captcha verification rejected", map[string]interface{}{
			"errorCodes": verdict.ErrorCodes,
		})
		return false
	}

	return true
}
