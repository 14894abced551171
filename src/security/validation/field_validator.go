package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxAssetIDLength       = 100
	MaxTickerLength        = 12
	MaxCurrencyCodeLength  = 3
	MaxTagLength           = 50
)

var (
	assetIDRegex      = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	tickerRegex       = regexp.MustCompile(`^[A-Z]{4}[0-9]{1,2}(\.[A-Z]{2})?$`)
	currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateAssetID checks format and length for user-supplied asset IDs.
func ValidateAssetID(s string) error {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, "Asset ID"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(trimmed, MaxAssetIDLength, "Asset ID"); err != nil {
		return err
	}
	if !assetIDRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: Asset ID ('%s') must be alphanumeric with hyphens/underscores", ErrValidationFailed, s)
	}
	return nil
}

// ValidateTicker checks a B3-style ticker shape. Empty tickers are allowed;
// assets without one are simply never priced externally.
func ValidateTicker(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if err := ValidateStringMaxLength(trimmed, MaxTickerLength, "Ticker"); err != nil {
		return err
	}
	if !tickerRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: Ticker ('%s') is not in the expected format (e.g. PETR4, BOVA11)", ErrValidationFailed, s)
	}
	return nil
}

// ValidateCurrencyCode checks if currency code is 3 uppercase letters.
func ValidateCurrencyCode(s string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return nil
	}
	if !currencyCodeRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: Currency Code ('%s') is not in the expected format (3 uppercase letters)", ErrValidationFailed, s)
	}
	return nil
}

// ValidateISODateString checks if a string is a valid "YYYY-MM-DD" date.
func ValidateISODateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD): %v", ErrValidationFailed, fieldName, s, err)
	}
	return t, nil
}
