// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedClient_PacesRequests(t *testing.T) {
	var calls int32
	ts := statusSequence(t, &calls)

	// 20/s with burst 1: three requests need at least two token refills.
	c := NewLimitedClient(ts.Client(), 20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestLimitedClient_ZeroRateIsUnlimited(t *testing.T) {
	var calls int32
	ts := statusSequence(t, &calls)
	c := NewLimitedClient(ts.Client(), 0, 0)

	for i := 0; i < 5; i++ {
		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestLimitedClient_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewLimitedClient(ts.Client(), 0.001, 1)

	// Spend the only token.
	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	assert.Error(t, err)
}

func TestLimitedClient_WorksWithRetry(t *testing.T) {
	var calls int32
	ts := statusSequence(t, &calls, http.StatusTooManyRequests)
	c := NewLimitedClient(ts.Client(), 0, 1)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), c, req, fastPolicy(3))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
