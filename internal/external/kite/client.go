package kite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/optsignals/pkg/config"
	"github.com/wonny/optsignals/pkg/httputil"
	"github.com/wonny/optsignals/pkg/logger"
)

// apiVersion is sent as X-Kite-Version on every request
const apiVersion = "3"

var (
	// ErrNotAuthenticated means no usable access token is present
	ErrNotAuthenticated = errors.New("kite session not authenticated")

	// ErrNotConfigured means the API key or secret is missing
	ErrNotConfigured = errors.New("kite api credentials not configured")
)

// Client is a Kite Connect REST client
// ⭐ SSOT: Kite API 호출은 여기서만
type Client struct {
	cfg     config.KiteConfig
	http    *httputil.Client
	session *Session
	logger  *logger.Logger
}

// NewClient creates a Kite client. The session is shared with callers.
func NewClient(cfg config.KiteConfig, session *Session, httpClient *httputil.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	if httpClient == nil {
		httpClient = httputil.New(log).WithLimiter(cfg.RateLimit)
	}
	if session == nil {
		session = NewSession()
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		session: session,
		logger:  log,
	}
}

// Session returns the session used by this client
func (c *Client) Session() *Session {
	return c.session
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// LoginURL returns the broker login page for the configured API key
func (c *Client) LoginURL() (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	q := url.Values{}
	q.Set("v", apiVersion)
	q.Set("api_key", c.cfg.APIKey)
	return c.cfg.LoginURL + "?" + q.Encode(), nil
}

// Checksum is sha256(api_key + request_token + api_secret) in hex
func Checksum(apiKey, requestToken, apiSecret string) string {
	sum := sha256.Sum256([]byte(apiKey + requestToken + apiSecret))
	return hex.EncodeToString(sum[:])
}

// GenerateSession exchanges a request token for an access token and stores it
func (c *Client) GenerateSession(ctx context.Context, requestToken string) (*SessionData, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(requestToken) == "" {
		return nil, fmt.Errorf("request_token is required")
	}

	form := url.Values{}
	form.Set("api_key", c.cfg.APIKey)
	form.Set("request_token", requestToken)
	form.Set("checksum", Checksum(c.cfg.APIKey, requestToken, c.cfg.APISecret))

	var resp envelope[SessionData]
	err := c.http.PostFormJSON(ctx, c.cfg.BaseURL+"/session/token", form, c.headers(""), &resp)
	if err != nil {
		return nil, fmt.Errorf("generate session: %w", c.mapError(err))
	}
	if resp.Data.AccessToken == "" {
		return nil, fmt.Errorf("generate session: empty access token")
	}

	c.session.Set(resp.Data)
	c.logger.WithField("user_id", resp.Data.UserID).Info("Kite session authenticated")

	return &resp.Data, nil
}

// Quote fetches full quotes keyed by instrument ("EXCHANGE:TRADINGSYMBOL").
// Instruments unknown to the broker are simply absent from the result.
func (c *Client) Quote(ctx context.Context, instruments ...string) (map[string]Quote, error) {
	if len(instruments) == 0 {
		return map[string]Quote{}, nil
	}
	token := c.session.AccessToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	q := url.Values{}
	for _, inst := range instruments {
		q.Add("i", inst)
	}

	var resp envelope[map[string]Quote]
	if err := c.http.GetJSON(ctx, c.cfg.BaseURL+"/quote?"+q.Encode(), c.headers(token), &resp); err != nil {
		return nil, fmt.Errorf("quote: %w", c.mapError(err))
	}
	if resp.Data == nil {
		return map[string]Quote{}, nil
	}
	return resp.Data, nil
}

func (c *Client) headers(accessToken string) http.Header {
	h := http.Header{}
	h.Set("X-Kite-Version", apiVersion)
	if accessToken != "" {
		h.Set("Authorization", fmt.Sprintf("token %s:%s", c.cfg.APIKey, accessToken))
	}
	return h
}

// mapError turns an HTTP status error into an APIError. A rejected token
// clears the session and wraps ErrNotAuthenticated.
func (c *Client) mapError(err error) error {
	var statusErr *httputil.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}

	apiErr := &APIError{StatusCode: statusErr.StatusCode, Message: statusErr.Body}
	var body envelope[json.RawMessage]
	if json.Unmarshal([]byte(statusErr.Body), &body) == nil {
		apiErr.ErrorType = body.ErrorType
		if body.Message != "" {
			apiErr.Message = body.Message
		}
	}

	if statusErr.StatusCode == http.StatusForbidden || apiErr.ErrorType == "TokenException" {
		c.session.Clear()
		c.logger.WithField("error_type", apiErr.ErrorType).Warn("Kite token rejected, session cleared")
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, apiErr)
	}
	return apiErr
}
