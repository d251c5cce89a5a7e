package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password against hash. Returns ErrInvalidCredentials on mismatch.
func CheckPassword(hash, password string) error {
	if hash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

// dummyHash is compared against when no account exists so unknown emails take as long
// as wrong passwords.
var dummyHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("no account with this email"), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(hash)
})

// RejectUnknownUser runs a full bcrypt comparison and always returns ErrInvalidCredentials.
func RejectUnknownUser(password string) error {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash()), []byte(password))
	return ErrInvalidCredentials
}
