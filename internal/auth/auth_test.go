package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := CheckPassword(hash, "correct horse battery"); err != nil {
		t.Errorf("CheckPassword() error = %v, want nil", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) error = %v, want ErrInvalidCredentials", err)
	}
	if err := CheckPassword("", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(empty hash) error = %v, want ErrInvalidCredentials", err)
	}
}

// TestRejectUnknownUser verifies unknown accounts are rejected after a comparison at the
// same bcrypt cost as stored passwords.
func TestRejectUnknownUser(t *testing.T) {
	if err := RejectUnknownUser("correct horse battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("RejectUnknownUser() error = %v, want ErrInvalidCredentials", err)
	}
	cost, err := bcrypt.Cost([]byte(dummyHash()))
	if err != nil {
		t.Fatalf("bcrypt.Cost(dummy) error = %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("dummy hash cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

// TestTokenIssuer_RoundTrip verifies that an issued token verifies to the same subject.
func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	tok, err := issuer.Issue("kasse@example.org")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	email, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if email != "kasse@example.org" {
		t.Errorf("Verify() = %q, want kasse@example.org", email)
	}
}

// TestTokenIssuer_Rejects verifies expired tokens, tokens signed with another secret,
// and garbage are all rejected with ErrInvalidToken.
func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := issuer.Issue("a@example.org")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	issuer.now = time.Now

	other, err := NewTokenIssuer("other-secret", time.Hour).Issue("a@example.org")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	for name, tok := range map[string]string{"expired": expired, "foreign": other, "garbage": "not-a-token"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: Verify() error = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	if got := NewTokenIssuer("s", 0).ttl; got != time.Hour {
		t.Errorf("ttl = %v, want 1h", got)
	}
}
