package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobbyapp/cv-transformer/internal/types"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSession_RefreshReplacesCredentials(t *testing.T) {
	var gotRefreshToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotRefreshToken = req.RefreshToken
		_ = json.NewEncoder(w).Encode(types.TokenPair{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
		})
	}))
	defer srv.Close()

	s := NewSession(types.TokenPair{AccessToken: "old-access", RefreshToken: "old-refresh"}, srv.URL, srv.Client(), nil)
	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, "old-refresh", gotRefreshToken)
	assert.Equal(t, "new-access", s.AccessToken())
}

func TestSession_RefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSession(types.TokenPair{AccessToken: "a", RefreshToken: "r"}, srv.URL, srv.Client(), nil)
	err := s.Refresh(context.Background())
	require.Error(t, err)

	var re *RefreshError
	assert.ErrorAs(t, err, &re)
	// Credentials are left untouched on failure.
	assert.Equal(t, "a", s.AccessToken())
}

func TestSession_RefreshIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "only-half"})
	}))
	defer srv.Close()

	s := NewSession(types.TokenPair{AccessToken: "a", RefreshToken: "r"}, srv.URL, srv.Client(), nil)
	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete credential pair")
}

func TestSession_LogoutFiresOnce(t *testing.T) {
	logouts := 0
	s := NewSession(types.TokenPair{AccessToken: "a", RefreshToken: "r"}, "http://unused", nil, func() {
		logouts++
	})

	s.Logout()
	s.Logout()

	assert.Equal(t, 1, logouts)
	assert.Empty(t, s.AccessToken())
}

func TestSession_ExpiresAt(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	s := NewSession(types.TokenPair{AccessToken: signedToken(t, exp), RefreshToken: "r"}, "http://unused", nil, nil)

	got, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.WithinDuration(t, exp, got, time.Second)

	// Opaque (non-JWT) tokens report no expiry.
	opaque := NewSession(types.TokenPair{AccessToken: "not-a-jwt", RefreshToken: "r"}, "http://unused", nil, nil)
	_, ok = opaque.ExpiresAt()
	assert.False(t, ok)
}
