// internal/decision/enrichment/vat.go
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	commonerrors "lease-risk-workers/internal/common/errors"
	httpclient "lease-risk-workers/internal/common/http"
	"lease-risk-workers/internal/common/metrics"
	"lease-risk-workers/internal/models"
)

var ErrInvalidVATNumber = errors.New("INVALID_VAT_NUMBER")

// transientVATCodes are registry codes that signal a temporary condition,
// whichever status they arrive with.
var transientVATCodes = map[string]bool{
	"MS_MAX_CONCURRENT_REQ":     true,
	"GLOBAL_MAX_CONCURRENT_REQ": true,
	"MS_UNAVAILABLE":            true,
	"SERVICE_UNAVAILABLE":       true,
	"TIMEOUT":                   true,
}

// ParseVAT normalizes a VAT number and splits it into country prefix and
// national number. A bare number is taken as Belgian.
func ParseVAT(raw string) (full, country, number string, err error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return "", "", "", fmt.Errorf("%w: empty VAT number", ErrInvalidVATNumber)
	}

	switch {
	case len(cleaned) >= 2 && isASCIILetter(cleaned[0]) && isASCIILetter(cleaned[1]):
		country, number = cleaned[:2], cleaned[2:]
	case isAllDigits(cleaned):
		country, number = "BE", cleaned
	default:
		return "", "", "", fmt.Errorf("%w: %q has no country prefix", ErrInvalidVATNumber, raw)
	}

	if number == "" || len(number) > 12 {
		return "", "", "", fmt.Errorf("%w: %q has an invalid national number", ErrInvalidVATNumber, raw)
	}
	return country + number, country, number, nil
}

// validateVAT calls the registry with bounded retries. Exhausted attempts
// surface as the last error, never as a panic.
func (o *Orchestrator) validateVAT(ctx context.Context, country, number string) (*models.VATValidation, error) {
	var lastErr error
	for attempt := 0; attempt < o.cfg.VATMaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.VATRetries.Inc()
		}

		resp, err := o.vatAttempt(ctx, country, number)
		if err == nil {
			return &models.VATValidation{
				Valid:       resp.Valid,
				Name:        resp.Name,
				Address:     resp.Address,
				CountryCode: country,
				VATNumber:   country + number,
			}, nil
		}
		lastErr = err

		if !isRetryableVAT(err) || attempt == o.cfg.VATMaxAttempts-1 {
			break
		}

		delay := o.backoff(attempt)
		o.logger.Debug("retrying VAT registry", map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay.String(),
			"error":   err,
		})
		if err := o.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}
	return nil, lastErr
}

func (o *Orchestrator) vatAttempt(ctx context.Context, country, number string) (*models.VATRegistryResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.VATAttemptTimeout)
	defer cancel()

	resp, err := o.vat.Validate(ctx, country, number)
	if err != nil {
		return nil, err
	}
	if code := vatErrorCode(resp.ErrorCode); code != "" {
		return nil, &commonerrors.UpstreamError{Service: SourceVAT, Code: code}
	}
	return resp, nil
}

// vatErrorCode treats the registry's own "VALID" marker as no error.
func vatErrorCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "VALID" {
		return ""
	}
	return code
}

func isRetryableVAT(err error) bool {
	up, ok := commonerrors.AsUpstream(err)
	if !ok {
		return httpclient.IsTimeout(err)
	}
	if up.Timeout || transientVATCodes[up.Code] {
		return true
	}
	if up.Code != "" {
		return false
	}
	return up.IsServerError()
}

// backoff returns min(base*2^attempt, cap) plus jitter.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	delay := o.cfg.VATBackoffBase
	for i := 0; i < attempt && delay < o.cfg.VATBackoffCap; i++ {
		delay *= 2
	}
	if delay > o.cfg.VATBackoffCap {
		delay = o.cfg.VATBackoffCap
	}
	return delay + o.jitter(o.cfg.VATMaxJitter)
}

func isASCIILetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
