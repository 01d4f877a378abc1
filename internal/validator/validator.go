// Package validator provides input validation and sanitization functions
// for the Mailgo backend security layer.
package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInvalidLabelName = errors.New("invalid label name")
	ErrWeakPassword     = errors.New("password does not meet minimum requirements")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrEmptyInput       = errors.New("input cannot be empty")
)

// Label names: printable, no leading/trailing space, no quotes. Quotes are
// excluded because labels are matched inside serialized JSON arrays.
var labelNameRegex = regexp.MustCompile(`^[^"\x00-\x1f]+$`)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidateEmail validates email address format according to RFC 5322.
// Returns nil if valid, or an appropriate error.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	// Use Go's mail package for RFC 5322 validation
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// MaxLabelNameLength is the maximum accepted label name length.
const MaxLabelNameLength = 64

// ValidateLabelName validates a user-defined label name.
// Returns nil if valid, or an appropriate error.
func ValidateLabelName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return ErrEmptyInput
	}
	if trimmed != name {
		return ErrInvalidLabelName
	}
	if utf8.RuneCountInString(name) > MaxLabelNameLength {
		return ErrInputTooLong
	}
	if !labelNameRegex.MatchString(name) {
		return ErrInvalidLabelName
	}

	return nil
}

// ValidatePassword enforces the minimum password policy.
// Returns nil if valid, or an appropriate error.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	// bcrypt truncates beyond 72 bytes
	if len(password) > 72 {
		return ErrInputTooLong
	}
	return nil
}

// Pagination constants
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidatePagination validates and sanitizes pagination parameters.
// Returns sanitized limit and offset values.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// SanitizeFilename removes dangerous characters from filename.
// Prevents path traversal and removes control characters.
func SanitizeFilename(filename string) string {
	// Remove path separators to prevent path traversal
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")

	// Remove null bytes
	filename = strings.ReplaceAll(filename, "\x00", "")

	// Remove control characters (ASCII 0-31 and 127)
	filename = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, filename)

	// Trim whitespace
	filename = strings.TrimSpace(filename)

	// Limit length to 255 characters (common filesystem limit)
	if utf8.RuneCountInString(filename) > 255 {
		runes := []rune(filename)
		filename = string(runes[:255])
	}

	// Fallback for empty filename
	if filename == "" {
		return "unnamed"
	}

	return filename
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	// Remove control characters (ASCII 0-31 and 127)
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	// Trim whitespace
	input = strings.TrimSpace(input)

	// Enforce maximum length if specified
	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}
