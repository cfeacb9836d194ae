package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wonny/optsignals/internal/external/kite"
	"github.com/wonny/optsignals/pkg/logger"
	"github.com/wonny/optsignals/pkg/redis"
)

// AuthHandler runs the Kite Connect login flow
type AuthHandler struct {
	client *kite.Client
	shared *redis.Cache
	logger *logger.Logger
}

// NewAuthHandler creates an auth handler. shared may be a disabled cache.
func NewAuthHandler(client *kite.Client, shared *redis.Cache, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthHandler{
		client: client,
		shared: shared,
		logger: log,
	}
}

// Login returns the broker login URL
// GET /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	loginURL, err := h.client.LoginURL()
	if err != nil {
		h.logger.WithError(err).Warn("Cannot build login URL")
		respondError(w, http.StatusServiceUnavailable, "Failed to generate login URL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"login_url":   loginURL,
		"instruction": "Open this URL in a browser to authenticate with Zerodha",
	})
}

// Callback exchanges the request token for an access token
// POST /auth/callback?request_token=...  (GET is accepted for the broker redirect)
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("request_token"))
	if token == "" {
		respondError(w, http.StatusBadRequest, "request_token is required")
		return
	}

	data, err := h.client.GenerateSession(r.Context(), token)
	if err != nil {
		h.logger.WithError(err).Warn("Kite session exchange failed")
		status := http.StatusUnauthorized
		if errors.Is(err, kite.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, "Failed to authenticate")
		return
	}

	if err := h.client.Session().Persist(r.Context(), h.shared); err != nil {
		h.logger.WithError(err).Warn("Failed to share Kite session")
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "authenticated",
		"user_id": data.UserID,
	})
}
