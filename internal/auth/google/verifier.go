// Package google verifies Google-issued ID tokens for federated login.
package google

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// ErrInvalidIDToken is returned for tokens that fail signature, audience or
// expiry checks. Callers map it to an authentication failure.
var ErrInvalidIDToken = errors.New("invalid google id token")

// Profile is the subset of the ID token payload the account flow consumes.
type Profile struct {
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// Verifier checks an ID token and extracts the holder's profile.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Profile, error)
}

// IDTokenVerifier validates tokens against Google's published keys for a
// fixed OAuth client ID.
type IDTokenVerifier struct {
	audience string
}

// NewIDTokenVerifier returns a Verifier bound to the given OAuth client ID.
func NewIDTokenVerifier(clientID string) (*IDTokenVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}
	return &IDTokenVerifier{audience: clientID}, nil
}

func (v *IDTokenVerifier) Verify(ctx context.Context, idToken string) (Profile, error) {
	payload, err := validate(ctx, idToken, v.audience)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	profile := profileFromClaims(payload.Claims)
	if profile.Email == "" {
		return Profile{}, fmt.Errorf("%w: payload missing email", ErrInvalidIDToken)
	}
	return profile, nil
}

// validate is swapped out in tests.
var validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(ctx, token, audience)
}

func profileFromClaims(claims map[string]interface{}) Profile {
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	verified, _ := claims["email_verified"].(bool)
	return Profile{
		Email:         str("email"),
		Name:          str("name"),
		Picture:       str("picture"),
		EmailVerified: verified,
	}
}
