package google

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/idtoken"
)

func TestNewIDTokenVerifierRequiresClientID(t *testing.T) {
	if _, err := NewIDTokenVerifier(""); err == nil {
		t.Fatal("expected error for empty client id")
	}
}

func TestVerifyExtractsProfile(t *testing.T) {
	orig := validate
	defer func() { validate = orig }()
	validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if audience != "client-1" {
			t.Fatalf("unexpected audience %q", audience)
		}
		return &idtoken.Payload{Claims: map[string]interface{}{
			"email":          "ada@example.com",
			"name":           "Ada Lovelace",
			"picture":        "https://example.com/ada.png",
			"email_verified": true,
		}}, nil
	}

	v, err := NewIDTokenVerifier("client-1")
	if err != nil {
		t.Fatalf("NewIDTokenVerifier: %v", err)
	}
	profile, err := v.Verify(context.Background(), "opaque-token")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := Profile{Email: "ada@example.com", Name: "Ada Lovelace", Picture: "https://example.com/ada.png", EmailVerified: true}
	if profile != want {
		t.Fatalf("profile mismatch: got %+v want %+v", profile, want)
	}
}

func TestVerifyRejectsFailedValidation(t *testing.T) {
	orig := validate
	defer func() { validate = orig }()
	validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		return nil, errors.New("signature mismatch")
	}

	v, _ := NewIDTokenVerifier("client-1")
	if _, err := v.Verify(context.Background(), "bad"); !errors.Is(err, ErrInvalidIDToken) {
		t.Fatalf("expected ErrInvalidIDToken, got %v", err)
	}
}

func TestVerifyRejectsMissingEmail(t *testing.T) {
	orig := validate
	defer func() { validate = orig }()
	validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Claims: map[string]interface{}{"name": "No Email"}}, nil
	}

	v, _ := NewIDTokenVerifier("client-1")
	if _, err := v.Verify(context.Background(), "tok"); !errors.Is(err, ErrInvalidIDToken) {
		t.Fatalf("expected ErrInvalidIDToken, got %v", err)
	}
}
