package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UpstreamError describes a failed call to an external service. Code holds
// an error code reported by the service itself, which may arrive inside a
// successful HTTP response.
type UpstreamError struct {
	Service    string
	StatusCode int
	Code       string
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	switch {
	case e.Timeout:
		b.WriteString(": request timed out")
	case e.StatusCode != 0:
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	default:
		b.WriteString(": request failed")
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) IsServerError() bool {
	return e.StatusCode >= 500
}

func (e *UpstreamError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// AsUpstream extracts an UpstreamError from err's chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up, true
	}
	return nil, false
}
