// ABOUTME: Tests for session token issue and verification
// ABOUTME: Covers round trips, expiry, tampering and foreign secrets

package backend

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestSessionSigner_RoundTrip(t *testing.T) {
	s := NewSessionSigner(testSecret, time.Hour, nil)

	token, err := s.Issue("ana@example.com")
	require.NoError(t, err)

	email, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
}

func TestSessionSigner_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionSigner(testSecret, 30*time.Minute, func() time.Time { return now })

	token, err := s.Issue("ana@example.com")
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestSessionSigner_WrongSecret(t *testing.T) {
	token, err := NewSessionSigner([]byte("another-secret-another-secret-xx"), time.Hour, nil).Issue("ana@example.com")
	require.NoError(t, err)

	_, err = NewSessionSigner(testSecret, time.Hour, nil).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionSigner_Garbage(t *testing.T) {
	_, err := NewSessionSigner(testSecret, time.Hour, nil).Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionSigner_MissingSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = NewSessionSigner(testSecret, time.Hour, nil).Verify(token)
	assert.True(t, errors.Is(err, ErrMissingClaim), "got %v", err)
}
