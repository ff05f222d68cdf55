// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// NCBI allows 3 requests per second without an API key and 10 with one.
const (
	AnonymousRate = 3.0
	KeyedRate     = 10.0
)

// LimitedClient paces outgoing requests with a token bucket before handing
// them to the wrapped client. It is safe for concurrent use, so concurrent
// fetches share one budget.
type LimitedClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewLimitedClient wraps client with a limiter of ratePerSecond and the given
// burst. A non-positive rate disables pacing.
func NewLimitedClient(client *http.Client, ratePerSecond float64, burst int) *LimitedClient {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &LimitedClient{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Do waits for a token, honouring the request context, then sends req.
func (c *LimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	return c.client.Do(req)
}
