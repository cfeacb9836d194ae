package kite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optsignals/pkg/config"
	"github.com/wonny/optsignals/pkg/httputil"
	"github.com/wonny/optsignals/pkg/redis"
)

func testConfig(baseURL string) config.KiteConfig {
	return config.KiteConfig{
		APIKey:    "key123",
		APISecret: "secret456",
		BaseURL:   baseURL,
		LoginURL:  "https://kite.zerodha.com/connect/login",
		RateLimit: 100,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(nil).WithRetry(0, time.Millisecond)
	return NewClient(testConfig(server.URL), NewSession(), httpClient, nil), server
}

func TestChecksum(t *testing.T) {
	// sha256("key123" + "req" + "secret456")
	got := Checksum("key123", "req", "secret456")
	assert.Len(t, got, 64)
	assert.Equal(t, got, Checksum("key123", "req", "secret456"))
	assert.NotEqual(t, got, Checksum("key123", "req2", "secret456"))
}

func TestLoginURL(t *testing.T) {
	c := NewClient(testConfig("http://unused"), nil, nil, nil)

	raw, err := c.LoginURL()
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "kite.zerodha.com", u.Host)
	assert.Equal(t, "/connect/login", u.Path)
	assert.Equal(t, "key123", u.Query().Get("api_key"))
	assert.Equal(t, "3", u.Query().Get("v"))

	_, err = NewClient(config.KiteConfig{}, nil, nil, nil).LoginURL()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateSession(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/session/token", r.URL.Path)
		assert.Equal(t, "3", r.Header.Get("X-Kite-Version"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "key123", r.PostForm.Get("api_key"))
		assert.Equal(t, "req", r.PostForm.Get("request_token"))
		assert.Equal(t, Checksum("key123", "req", "secret456"), r.PostForm.Get("checksum"))

		fmt.Fprint(w, `{"status":"success","data":{"user_id":"AB1234","user_name":"Trader","access_token":"tok","login_time":"2024-01-15 09:10:11"}}`)
	})

	assert.False(t, c.Session().Authenticated())

	data, err := c.GenerateSession(context.Background(), "req")
	require.NoError(t, err)
	assert.Equal(t, "tok", data.AccessToken)

	assert.True(t, c.Session().Authenticated())
	info := c.Session().Info()
	assert.Equal(t, "AB1234", info.UserID)
	assert.Equal(t, "2024-01-15 09:10:11", info.LoginTime)
}

func TestGenerateSession_Errors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"status":"error","message":"Token is invalid or has expired.","error_type":"InputException"}`)
	})

	_, err := c.GenerateSession(context.Background(), "")
	assert.Error(t, err)

	_, err = c.GenerateSession(context.Background(), "stale")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "InputException", apiErr.ErrorType)
	assert.Equal(t, "Token is invalid or has expired.", apiErr.Message)
	assert.False(t, c.Session().Authenticated())

	_, err = NewClient(config.KiteConfig{APIKey: "k"}, nil, nil, nil).GenerateSession(context.Background(), "req")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestQuote(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "token key123:tok", r.Header.Get("Authorization"))
		assert.Equal(t, []string{"NFO:NIFTY24JAN1820000CE", "NFO:NIFTY24JAN1820000PE"}, r.URL.Query()["i"])

		fmt.Fprint(w, `{"status":"success","data":{
			"NFO:NIFTY24JAN1820000CE":{"instrument_token":1,"last_price":120.5,"volume":5000,"oi":75000,
				"ohlc":{"open":100,"high":130,"low":95,"close":4400},
				"depth":{"buy":[{"price":120.0,"quantity":50,"orders":2}],"sell":[{"price":121.0,"quantity":50,"orders":1}]}}
		}}`)
	})
	c.Session().Set(SessionData{AccessToken: "tok"})

	quotes, err := c.Quote(context.Background(), "NFO:NIFTY24JAN1820000CE", "NFO:NIFTY24JAN1820000PE")
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes["NFO:NIFTY24JAN1820000CE"]
	assert.Equal(t, 120.5, q.LastPrice)
	assert.Equal(t, int64(75000), q.OI)
	assert.Equal(t, 4400.0, q.OHLC.Close)
	assert.Equal(t, 120.0, q.BestBid())
	assert.Equal(t, 121.0, q.BestAsk())

	_, missing := quotes["NFO:NIFTY24JAN1820000PE"]
	assert.False(t, missing)
}

func TestQuote_NotAuthenticated(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.Quote(context.Background(), "NSE:NIFTY 50")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	quotes, err := c.Quote(context.Background())
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestQuote_TokenRejectedClearsSession(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`)
	})
	c.Session().Set(SessionData{AccessToken: "expired"})

	_, err := c.Quote(context.Background(), "NSE:NIFTY 50")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, c.Session().Authenticated())
}

func TestQuoteDepthEmpty(t *testing.T) {
	var q Quote
	assert.Zero(t, q.BestBid())
	assert.Zero(t, q.BestAsk())
}

func TestSession(t *testing.T) {
	s := NewSession()
	assert.False(t, s.Authenticated())

	s.Set(SessionData{AccessToken: "tok", UserID: "AB1234"})
	assert.True(t, s.Info().Authenticated)
	assert.Equal(t, "tok", s.AccessToken())

	s.Clear()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Info().UserID)

	var nilSession *Session
	assert.False(t, nilSession.Authenticated())
}

func TestSessionPersistDisabledCache(t *testing.T) {
	cache := redis.NewCache(redis.Disabled(), "test")
	s := NewSession()
	s.Set(SessionData{AccessToken: "tok"})

	assert.NoError(t, s.Persist(context.Background(), cache))

	restored := NewSession()
	found, err := restored.Restore(context.Background(), cache)
	require.NoError(t, err)
	assert.False(t, found)
}
