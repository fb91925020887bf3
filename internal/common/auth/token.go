// internal/common/auth/token.go
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 30 * time.Second

// FetchFunc obtains a fresh token from the provider.
type FetchFunc func(ctx context.Context) (string, error)

// TokenSource caches a bearer token until its TTL elapses. Concurrent
// callers that find the cache empty share a single fetch. The shared fetch
// is detached from any one caller's cancellation and bounded by its own
// timeout instead.
type TokenSource struct {
	fetch        FetchFunc
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu     sync.RWMutex
	token  string
	expiry time.Time

	group singleflight.Group
}

func NewTokenSource(fetch FetchFunc, ttl time.Duration) *TokenSource {
	return &TokenSource{fetch: fetch, ttl: ttl, fetchTimeout: defaultFetchTimeout, now: time.Now}
}

// WithClock overrides the time source.
func (s *TokenSource) WithClock(now func() time.Time) *TokenSource {
	s.now = now
	return s
}

// Token returns the cached token or fetches a new one.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.cached(); ok {
		return tok, nil
	}

	ch := s.group.DoChan("token", func() (interface{}, error) {
		if tok, ok := s.cached(); ok {
			return tok, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		tok, err := s.fetch(fctx)
		if err != nil {
			return "", fmt.Errorf("failed to obtain access token: %w", err)
		}
		if tok == "" {
			return "", fmt.Errorf("failed to obtain access token: empty token")
		}

		s.mu.Lock()
		s.token = tok
		s.expiry = s.now().Add(s.ttl)
		s.mu.Unlock()
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call re-authenticates.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiry = time.Time{}
	s.mu.Unlock()
}

func (s *TokenSource) cached() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token != "" && s.now().Before(s.expiry) {
		return s.token, true
	}
	return "", false
}
