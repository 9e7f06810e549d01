package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType is the fixed token-type label returned on login
const TokenType = "bearer"

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, expired, malformed payload, or a non-numeric subject.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer issues and verifies signed, time-limited access tokens.
// Tokens are HS256 JWTs carrying the user id as the subject. The signing
// secret is process-wide and read-only after startup.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer with the given secret and token lifetime
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a signed access token for the user id
func (ti *TokenIssuer) Issue(userID int64) (string, error) {
	now := ti.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the claims.
// Any failure is reported as ErrInvalidToken; callers must not leak the
// underlying parse error to clients.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	registered, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || registered.Subject == "" {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(registered.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: userID}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
