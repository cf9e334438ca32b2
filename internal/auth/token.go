package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and verifies signed session tokens. Tokens are
// stateless: nothing is stored server-side and there is no revocation.
type TokenManager struct {
	secret           []byte
	userTokenExpiry  time.Duration
	adminTokenExpiry time.Duration

	// Now is the clock used for issuing and verifying. Tests replace it.
	Now func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, userExpiry, adminExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:           []byte(secret),
		userTokenExpiry:  userExpiry,
		adminTokenExpiry: adminExpiry,
		Now:              time.Now,
	}
}

// IssueUserToken signs a token for a regular login
func (tm *TokenManager) IssueUserToken(userID, email, role string) (string, time.Time, error) {
	return tm.issue(userID, email, role, models.TokenOriginUser, tm.userTokenExpiry)
}

// IssueAdminToken signs a short-lived token for an admin console login
func (tm *TokenManager) IssueAdminToken(userID, email, role string) (string, time.Time, error) {
	return tm.issue(userID, email, role, models.TokenOriginAdmin, tm.adminTokenExpiry)
}

func (tm *TokenManager) issue(userID, email, role, origin string, ttl time.Duration) (string, time.Time, error) {
	now := tm.Now()
	expiresAt := now.Add(ttl)

	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Origin: origin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// VerifyToken checks signature and validity window. It reports
// ErrMissingToken for an empty string, ErrTokenExpired for a well-signed
// token past its expiry, and ErrInvalidToken for anything else.
func (tm *TokenManager) VerifyToken(tokenString string) (*models.TokenClaims, error) {
	if tokenString == "" {
		return nil, models.ErrMissingToken
	}

	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return tm.secret, nil
		},
		jwt.WithTimeFunc(tm.Now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}
