package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optsignals/pkg/logger"
	"github.com/wonny/optsignals/pkg/redis"
)

func TestNew(t *testing.T) {
	client := New(nil)
	require.NotNil(t, client)

	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.logger)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.Equal(t, 2, client.retryConfig.MaxRetries)
	assert.True(t, client.retryConfig.Enabled)
}

func TestNewWithTimeout(t *testing.T) {
	client := NewWithTimeout(logger.NewNop(), 5*time.Second)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
}

func TestWithRetry(t *testing.T) {
	client := New(nil).WithRetry(5, 2*time.Second)

	assert.Equal(t, 5, client.retryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, client.retryConfig.InitialDelay)
}

func TestDisableRetry(t *testing.T) {
	client := New(nil).DisableRetry()
	assert.False(t, client.retryConfig.Enabled)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.Header.Get("X-Kite-Version"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","value":42}`)
	}))
	defer server.Close()

	var out struct {
		Status string `json:"status"`
		Value  int    `json:"value"`
	}
	header := http.Header{}
	header.Set("X-Kite-Version", "3")

	err := New(nil).GetJSON(context.Background(), server.URL, header, &out)
	require.NoError(t, err)
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, 42, out.Value)
}

func TestGetJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"status":"error","message":"Invalid token"}`)
	}))
	defer server.Close()

	var out map[string]interface{}
	err := New(nil).GetJSON(context.Background(), server.URL, nil, &out)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Invalid token")
}

func TestRetryOnServerError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := New(nil).WithRetry(3, time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryRewindsFormBody(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "abc", r.PostForm.Get("request_token"))
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := New(nil).WithRetry(1, time.Millisecond).
		PostFormJSON(context.Background(), server.URL, url.Values{"request_token": {"abc"}}, nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestNoRetryOnClientError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	resp, err := New(nil).WithRetry(3, time.Millisecond).Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRateLimitersPassThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := New(nil).
		WithLimiter(100).
		WithRateLimiter(redis.NewRateLimiter(redis.Disabled(), "test"), redis.KiteRateLimit)

	for i := 0; i < 3; i++ {
		resp, err := client.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
}

func TestCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).WithLimiter(1).Get(ctx, server.URL, nil)
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.code))
		})
	}
}
