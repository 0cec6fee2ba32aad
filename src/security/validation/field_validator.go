package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrValidationFailed is the sentinel wrapped by every validator error, so
// callers can classify failures with errors.Is.
var ErrValidationFailed = fmt.Errorf("validation failed")

// Field length limits for caller-supplied trade data.
const (
	MaxSymbolLength   = 20
	MaxSourceLength   = 100
	MaxSourceIDLength = 100
	MaxNotesLength    = 1024
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

// ValidatePositive checks that a numeric field is strictly greater than zero.
func ValidatePositive(v float64, fieldName string) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be greater than 0", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateNonNegative checks that a numeric field is zero or greater.
func ValidateNonNegative(v float64, fieldName string) error {
	if v < 0 {
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return nil
}
