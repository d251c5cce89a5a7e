package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjstillabower/solawi/internal/models"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"trimmed", "  Jürgen Müller ", "Jürgen Müller", nil},
		{"empty", "", "", ErrNameEmpty},
		{"spaces", "   ", "", ErrNameEmpty},
		{"tab", "\t", "", ErrNameEmpty},
		{"control", "Ada\x00", "", ErrNameInvalidChars},
		{"too long", strings.Repeat("ä", MaxNameLength+1), "", ErrNameTooLong},
		{"max length", strings.Repeat("ä", MaxNameLength), strings.Repeat("ä", MaxNameLength), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateName(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ValidateName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"ada@example.org", " kasse@solawi.de "}
	for _, in := range valid {
		if _, err := ValidateEmail(in); err != nil {
			t.Errorf("ValidateEmail(%q) error = %v", in, err)
		}
	}
	invalid := []string{"", "no-at", "Ada <ada@example.org>", "a@b@c"}
	for _, in := range invalid {
		if _, err := ValidateEmail(in); !errors.Is(err, ErrEmailInvalid) {
			t.Errorf("ValidateEmail(%q) error = %v, want ErrEmailInvalid", in, err)
		}
	}
}

func TestValidateOptionalEmail(t *testing.T) {
	got, err := ValidateOptionalEmail(nil)
	if err != nil || got != nil {
		t.Errorf("ValidateOptionalEmail(nil) = %v, %v", got, err)
	}
	empty := " "
	got, err = ValidateOptionalEmail(&empty)
	if err != nil || got != nil {
		t.Errorf("ValidateOptionalEmail(blank) = %v, %v", got, err)
	}
	bad := "x"
	if _, err := ValidateOptionalEmail(&bad); !errors.Is(err, ErrEmailInvalid) {
		t.Errorf("ValidateOptionalEmail(bad) error = %v", err)
	}
}

// TestValidatePassword verifies the 14 character minimum counts runes, not bytes.
func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword(strings.Repeat("x", 13)); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("13 chars: error = %v, want ErrPasswordTooShort", err)
	}
	if err := ValidatePassword(strings.Repeat("x", 14)); err != nil {
		t.Errorf("14 chars: error = %v", err)
	}
	if err := ValidatePassword(strings.Repeat("ü", 7)); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("7 umlauts (14 bytes): error = %v, want ErrPasswordTooShort", err)
	}
}

func TestValidateAmountAndPeriod(t *testing.T) {
	if err := ValidateAmount(decimal.NewFromInt(-1)); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("ValidateAmount(-1) error = %v", err)
	}
	if err := ValidateAmount(decimal.Zero); err != nil {
		t.Errorf("ValidateAmount(0) error = %v", err)
	}

	start := models.NewDate(2024, time.April, 1)
	before := models.NewDate(2024, time.March, 31)
	if err := ValidatePeriod(start, &before); !errors.Is(err, ErrPeriodInvalid) {
		t.Errorf("ValidatePeriod() error = %v, want ErrPeriodInvalid", err)
	}
	if err := ValidatePeriod(start, &start); err != nil {
		t.Errorf("same-day period error = %v", err)
	}
	if err := ValidatePeriod(start, nil); err != nil {
		t.Errorf("open period error = %v", err)
	}
}
