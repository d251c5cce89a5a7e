// Package validation checks user supplied field values before they reach the store.
package validation

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/kjstillabower/solawi/internal/models"
)

// MinPasswordLength is the minimum length of a user chosen password.
const MinPasswordLength = 14

// MaxNameLength bounds member, person and share names in runes.
const MaxNameLength = 200

// ErrNameEmpty is returned when a name is empty or whitespace-only after trim.
var ErrNameEmpty = errors.New("name is required")

// ErrNameTooLong is returned when a name exceeds MaxNameLength.
var ErrNameTooLong = errors.New("name too long")

// ErrNameInvalidChars is returned when a name contains control characters.
var ErrNameInvalidChars = errors.New("name contains invalid characters")

// ErrEmailInvalid is returned for addresses that do not parse as a single mailbox.
var ErrEmailInvalid = errors.New("invalid email address")

// ErrPasswordTooShort is returned for passwords shorter than MinPasswordLength.
var ErrPasswordTooShort = errors.New("password must be at least 14 characters")

// ErrNegativeAmount is returned for negative monetary values.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ErrPeriodInvalid is returned when an end date lies before the start date.
var ErrPeriodInvalid = errors.New("end_date must not be before start_date")

// ValidateName trims the input and enforces non-empty, bounded, printable names.
// Returns the trimmed string.
func ValidateName(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return "", ErrNameTooLong
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", ErrNameInvalidChars
		}
	}
	return s, nil
}

// ValidateEmail trims and checks a bare address ("a@b.c", no display name).
func ValidateEmail(input string) (string, error) {
	s := strings.TrimSpace(input)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return "", ErrEmailInvalid
	}
	return s, nil
}

// ValidateOptionalEmail accepts nil and empty values, normalizing empty to nil.
func ValidateOptionalEmail(input *string) (*string, error) {
	if input == nil || strings.TrimSpace(*input) == "" {
		return nil, nil
	}
	s, err := ValidateEmail(*input)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidatePassword enforces the minimum length in runes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateAmount rejects negative values.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ValidatePeriod rejects an end date before the start date. A nil end is open-ended.
func ValidatePeriod(start models.Date, end *models.Date) error {
	if end != nil && end.Before(start) {
		return ErrPeriodInvalid
	}
	return nil
}
