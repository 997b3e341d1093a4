package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T, secret, issuer string, now time.Time) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator([]byte(secret), issuer)
	require.NoError(t, err)
	a.now = func() time.Time { return now }
	return a
}

func TestAuthenticator_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := newAuth(t, testSecret, "pdf-compressor", now)

	token, err := a.Issue("uploader", time.Hour)
	require.NoError(t, err)
	claims, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "uploader", claims.Subject)
	assert.Equal(t, "pdf-compressor", claims.Issuer)
}

func TestAuthenticator_Rejections(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newAuth(t, testSecret, "pdf-compressor", now)
	token, err := issuer.Issue("uploader", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		verify  *Authenticator
		token   string
		wantErr error
	}{
		{"empty", issuer, "", ErrMissingToken},
		{"garbage", issuer, "not.a.jwt", ErrInvalidToken},
		{"other secret", newAuth(t, "ffffffffffffffffffffffffffffffff", "pdf-compressor", now), token, ErrInvalidSignature},
		{"expired", newAuth(t, testSecret, "pdf-compressor", now.Add(3*time.Hour)), token, ErrTokenExpired},
		{"not yet valid", newAuth(t, testSecret, "pdf-compressor", now.Add(-time.Hour)), token, ErrTokenNotYetValid},
		{"wrong issuer", newAuth(t, testSecret, "someone-else", now), token, ErrInvalidIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verify.Verify(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthenticator_NoIssuerAcceptsAny(t *testing.T) {
	now := time.Now()
	token, err := newAuth(t, testSecret, "ci", now).Issue("x", time.Minute)
	require.NoError(t, err)
	_, err = newAuth(t, testSecret, "", now).Verify(token)
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct{ header, want string }{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bearerToken(tt.header), "bearerToken(%q)", tt.header)
	}
}
