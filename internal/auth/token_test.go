package auth

import (
	"errors"
	"testing"
	"time"
)

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	want := Identity{UserID: "user-1", Name: "Ada", Email: "ada@example.com"}
	token, err := mgr.Issue(want)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := mgr.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != want {
		t.Fatalf("identity mismatch: got %+v want %+v", got, want)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", time.Nanosecond)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	token, err := mgr.Issue(Identity{UserID: "user-1", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := mgr.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer, _ := NewTokenManager("secret-a", time.Hour)
	verifier, _ := NewTokenManager("secret-b", time.Hour)
	token, err := issuer.Issue(Identity{UserID: "user-1", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr, _ := NewTokenManager("test-secret", time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := mgr.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", tok, err)
		}
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	mgr, err := NewTokenManager("test-secret", 0)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if mgr.TTL() != DefaultTokenTTL {
		t.Fatalf("expected default ttl %v, got %v", DefaultTokenTTL, mgr.TTL())
	}
}
