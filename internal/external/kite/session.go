package kite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/optsignals/pkg/redis"
)

// sessionCacheKey is where the access token is shared between processes
const sessionCacheKey = "kite:session"

// Session holds the Kite access token. It is the single capability that
// unlocks live data; pass it to whoever needs it instead of using globals.
// ⭐ SSOT: 인증 상태는 여기서만
type Session struct {
	mu          sync.RWMutex
	accessToken string
	userID      string
	userName    string
	loginTime   string
	updatedAt   time.Time
}

// SessionInfo is a read-only view safe to expose over the API
type SessionInfo struct {
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	LoginTime     string    `json:"login_time,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// NewSession returns an unauthenticated session
func NewSession() *Session {
	return &Session{}
}

// Set stores the data returned by a successful token exchange
func (s *Session) Set(data SessionData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = data.AccessToken
	s.userID = data.UserID
	s.userName = data.UserName
	s.loginTime = data.LoginTime
	s.updatedAt = time.Now().UTC()
}

// Clear drops the token, e.g. after the broker rejects it
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.userID = ""
	s.userName = ""
	s.loginTime = ""
	s.updatedAt = time.Time{}
}

// AccessToken returns the current token, empty when unauthenticated
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// Authenticated reports whether an access token is present
func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// Info returns a snapshot of the session without the token
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionInfo{
		Authenticated: s.accessToken != "",
		UserID:        s.userID,
		UserName:      s.userName,
		LoginTime:     s.loginTime,
		UpdatedAt:     s.updatedAt,
	}
}

// Persist shares the session through Redis so workers can reuse a login
func (s *Session) Persist(ctx context.Context, cache *redis.Cache) error {
	if !cache.Enabled() || !s.Authenticated() {
		return nil
	}
	s.mu.RLock()
	data := SessionData{
		AccessToken: s.accessToken,
		UserID:      s.userID,
		UserName:    s.userName,
		LoginTime:   s.loginTime,
	}
	s.mu.RUnlock()

	if err := cache.Set(ctx, sessionCacheKey, data, redis.TTLSession); err != nil {
		return fmt.Errorf("persist kite session: %w", err)
	}
	return nil
}

// Restore loads a shared session. It reports whether a token was found.
func (s *Session) Restore(ctx context.Context, cache *redis.Cache) (bool, error) {
	if !cache.Enabled() {
		return false, nil
	}
	var data SessionData
	found, err := cache.Get(ctx, sessionCacheKey, &data)
	if err != nil {
		return false, fmt.Errorf("restore kite session: %w", err)
	}
	if !found || data.AccessToken == "" {
		return false, nil
	}
	s.Set(data)
	return true, nil
}
