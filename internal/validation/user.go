// Package validation contains input validation rules shared by handlers and services.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

const (
	passwordMinLength = 12
	passwordMaxLength = 128
	emailMaxLength    = 254
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,28}[a-zA-Z0-9]$`)

// ValidatePassword enforces length and character class requirements.
func ValidatePassword(password string) error {
	length := len([]rune(password))
	if length < passwordMinLength {
		return fmt.Errorf("password must be at least %d characters", passwordMinLength)
	}
	if length > passwordMaxLength {
		return fmt.Errorf("password must be at most %d characters", passwordMaxLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf("password must contain uppercase, lowercase, digit, and special characters")
	}
	return nil
}

// ValidateUsername checks length and allowed characters. Usernames must start
// and end with an alphanumeric character.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters, alphanumeric with - or _, and cannot start or end with a separator")
	}
	return nil
}

// ValidateEmail checks basic RFC 5322 shape and total length.
func ValidateEmail(email string) error {
	if len(email) > emailMaxLength {
		return fmt.Errorf("email must be at most %d characters", emailMaxLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	if strings.HasSuffix(email, ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateEmailDomain checks that the email's domain is the allowed domain or
// a subdomain of it. Registration is restricted to university addresses.
func ValidateEmailDomain(email, allowedDomain string) error {
	if allowedDomain == "" {
		return nil
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return fmt.Errorf("invalid email address")
	}
	domain := strings.ToLower(email[at+1:])
	allowed := strings.ToLower(allowedDomain)
	if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
		return nil
	}
	return fmt.Errorf("registration requires a %s email address", allowedDomain)
}
