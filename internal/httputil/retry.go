// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of requests made before a
	// rate-limited request is abandoned.
	DefaultMaxAttempts = 5

	// DefaultBaseDelay is the wait after the first 429.
	DefaultBaseDelay = 500 * time.Millisecond

	// MaxDelay caps a single backoff wait.
	MaxDelay = 5 * time.Minute
)

// ErrRateLimited is matched by errors returned when every attempt was
// answered with HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// RetryError reports an abandoned request.
type RetryError struct {
	Attempts int
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("rate limited: gave up after %d attempts", e.Attempts)
}

// Is makes errors.Is(err, ErrRateLimited) hold.
func (e *RetryError) Is(target error) bool {
	return target == ErrRateLimited
}

// Doer is the minimal HTTP client interface used across packages.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryPolicy bounds the 429 backoff loop.
type RetryPolicy struct {
	// MaxAttempts is the total number of requests, including the first.
	// Zero or negative uses DefaultMaxAttempts.
	MaxAttempts int

	// BaseDelay is the wait after the first 429. It doubles after each
	// further 429. Zero uses DefaultBaseDelay.
	BaseDelay time.Duration

	// OnRetry, if set, is called before each backoff wait.
	OnRetry func(attempt int, delay time.Duration)
}

// Attempts returns the effective attempt ceiling.
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// Delay returns the wait after the nth consecutive 429, n starting at 1:
// BaseDelay, 2*BaseDelay, 4*BaseDelay, ... capped at MaxDelay.
func (p RetryPolicy) Delay(n int) time.Duration {
	d := p.BaseDelay
	if d <= 0 {
		d = DefaultBaseDelay
	}
	for i := 1; i < n && d < MaxDelay; i++ {
		d *= 2
	}
	return min(d, MaxDelay)
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) with exponential backoff, making at most policy.Attempts()
// requests. Any other status is returned to the caller unchanged, and a
// transport error is returned without retrying.
//
// On each 429 the response body is drained and closed. When the last attempt
// is also rate limited, DoWithRetry returns a *RetryError and no response.
// If the context is cancelled during a backoff wait it returns ctx.Err().
func DoWithRetry(ctx context.Context, client Doer, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	maxAttempts := policy.Attempts()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if attempt == maxAttempts {
			break
		}

		backoff := policy.Delay(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, &RetryError{Attempts: maxAttempts}
}
