// Package auth implements the session-identity primitives: the signed
// session token, the password hasher, and reset-token generation.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session validity window applied when no explicit
// duration is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrMissingSecret is returned when a TokenManager is constructed
	// without a signing secret. Callers treat this as fatal at startup.
	ErrMissingSecret = errors.New("signing secret is required")

	// ErrTokenInvalid covers bad signatures and malformed tokens.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when the token's validity window has elapsed.
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the decoded content of a verified session token. The gateway
// attaches it to the request context; it is never looked up against the
// credential store, so it can outlive the underlying account until expiry.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// TokenManager issues and verifies signed session tokens. Tokens are
// self-contained: there is no revocation, a leaked token stays valid until
// its natural expiry.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager signing with the provided secret.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured validity window.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session token asserting the provided identity, valid from
// now until now plus the configured window.
func (m *TokenManager) Issue(identity Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Name:  identity.Name,
		Email: identity.Email,
	})
	return token.SignedString(m.secret)
}

// Verify checks the signature and expiry of a session token and returns the
// asserted identity. Failures are reported as ErrTokenExpired or
// ErrTokenInvalid only; callers never see parser internals.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}
