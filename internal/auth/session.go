// Package auth provides the credential session injected into the
// transformation orchestrator. The session owns the access/refresh pair,
// performs the single silent refresh allowed per attempt and exposes the
// logout side effect triggered when the refresh path fails.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobbyapp/cv-transformer/internal/types"
)

// RefreshError represents a failed token refresh.
type RefreshError struct {
	Message string
	Cause   error
}

func (e *RefreshError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token refresh failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("token refresh failed: %s", e.Message)
}

func (e *RefreshError) Unwrap() error {
	return e.Cause
}

// Session holds the credential pair for one signed-in user. Reads and the
// single in-flight refresh write are serialized by the mutex.
type Session struct {
	mu         sync.Mutex
	creds      types.TokenPair
	refreshURL string
	client     *http.Client
	onLogout   func()
	loggedOut  bool
}

// NewSession creates a session from an existing credential pair. onLogout is
// invoked at most once, when the session is abandoned after a failed refresh
// path; it may be nil.
func NewSession(creds types.TokenPair, refreshURL string, client *http.Client, onLogout func()) *Session {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Session{
		creds:      creds,
		refreshURL: refreshURL,
		client:     client,
		onLogout:   onLogout,
	}
}

// AccessToken returns the current access credential.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.AccessToken
}

// ExpiresAt reports the expiry of the current access token, read from its
// JWT claims without signature verification (the server remains the
// authority; this is informational only).
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	token := s.creds.AccessToken
	s.mu.Unlock()

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Refresh exchanges the refresh credential for a new pair. The new pair
// replaces the stored one atomically with respect to concurrent reads.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.creds.RefreshToken
	s.mu.Unlock()

	reqBody := types.RefreshRequest{RefreshToken: refreshToken}
	if err := reqBody.Validate(); err != nil {
		return &RefreshError{Message: "no refresh credential available", Cause: err}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return &RefreshError{Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return &RefreshError{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &RefreshError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &RefreshError{Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	var pair types.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return &RefreshError{Message: "failed to decode response", Cause: err}
	}
	if err := pair.Validate(); err != nil {
		return &RefreshError{Message: "incomplete credential pair in response", Cause: err}
	}

	s.mu.Lock()
	s.creds = pair
	s.mu.Unlock()
	return nil
}

// Logout clears the stored credentials and fires the logout side effect.
// Safe to call more than once; the side effect runs only the first time.
func (s *Session) Logout() {
	s.mu.Lock()
	alreadyOut := s.loggedOut
	s.loggedOut = true
	s.creds = types.TokenPair{}
	s.mu.Unlock()

	if !alreadyOut && s.onLogout != nil {
		s.onLogout()
	}
}
