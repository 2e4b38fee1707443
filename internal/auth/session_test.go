package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)

	token, err := m.Issue("01USERALICE000000000000000", "alice")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.UserID != "01USERALICE000000000000000" {
		t.Errorf("unexpected user id: %s", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("unexpected username: %s", claims.Username)
	}
}

func TestSessionWrongSecret(t *testing.T) {
	issuer := NewSessionManager("secret-a", time.Hour)
	verifier := NewSessionManager("secret-b", time.Hour)

	token, err := issuer.Issue("01USERALICE000000000000000", "alice")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if _, err := verifier.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionExpired(t *testing.T) {
	m := NewSessionManager("test-secret", -time.Minute)

	token, err := m.Issue("01USERALICE000000000000000", "alice")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if _, err := m.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestSessionGarbageToken(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := m.Validate(tok); err == nil {
			t.Errorf("expected error for token %q", tok)
		}
	}
}
