package auth

import (
	"testing"
	"time"

	"github.com/BradenHooton/storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!!"

func newTestTokenManager(now time.Time) *TokenManager {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, time.Hour)
	tm.Now = func() time.Time { return now }
	return tm
}

func TestIssueUserToken_SevenDayLifetime(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tm := newTestTokenManager(now)

	token, expiresAt, err := tm.IssueUserToken("u1", "jane@example.com", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), expiresAt)

	claims, err := tm.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.TokenOriginUser, claims.Origin)
	assert.NotEmpty(t, claims.ID)
}

func TestIssueAdminToken_ExpiresAfterOneHour(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tm := newTestTokenManager(now)

	token, expiresAt, err := tm.IssueAdminToken("a1", "admin@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	tm.Now = func() time.Time { return now.Add(59 * time.Minute) }
	claims, err := tm.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenOriginAdmin, claims.Origin)

	tm.Now = func() time.Time { return now.Add(time.Hour + time.Second) }
	_, err = tm.VerifyToken(token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestVerifyToken_Errors(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tm := newTestTokenManager(now)
	valid, _, err := tm.IssueUserToken("u1", "jane@example.com", models.RoleUser)
	require.NoError(t, err)

	other := NewTokenManager("another-secret-that-is-long-enough", time.Hour, time.Hour)
	other.Now = tm.Now
	foreign, _, err := other.IssueUserToken("u1", "jane@example.com", models.RoleUser)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &models.TokenClaims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", models.ErrMissingToken},
		{"garbage", "not.a.jwt", models.ErrInvalidToken},
		{"wrong signature", foreign, models.ErrInvalidToken},
		{"alg none", noneToken, models.ErrInvalidToken},
		{"tampered", valid[:len(valid)-2] + "xx", models.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.VerifyToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, models.ErrUnauthorized)
		})
	}
}

func TestVerifyToken_ExpiredIsDistinguished(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tm := newTestTokenManager(now)
	token, _, err := tm.IssueUserToken("u1", "jane@example.com", models.RoleUser)
	require.NoError(t, err)

	tm.Now = func() time.Time { return now.Add(8 * 24 * time.Hour) }

	_, err = tm.VerifyToken(token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
	assert.NotErrorIs(t, err, models.ErrInvalidToken)
}
