// Package validation contains input validation rules for user-supplied data.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"warbler/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername checks username format: 1-30 characters, letters, digits,
// underscores and hyphens only.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > 30 {
		return fmt.Errorf("username must be at most 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may only contain letters, numbers, underscores and hyphens")
	}
	return nil
}

// ValidateEmail checks basic email shape and length.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must be at most 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("email is not a valid address")
	}
	return nil
}

// ValidatePassword enforces password length bounds. Bcrypt truncates past 72
// bytes but we cap earlier to keep inputs sane.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must be at most 128 characters")
	}
	return nil
}

// ValidateMessageText checks that message text is non-empty after trimming
// and fits the length limit.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is required")
	}
	if len([]rune(text)) > models.MaxMessageLength {
		return fmt.Errorf("message text must be at most %d characters", models.MaxMessageLength)
	}
	return nil
}
