package models

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// User represents a registered account.
type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Registration is the input to account creation.
type Registration struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

const maxFullNameLength = 100

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the registration fields. The password itself is checked by the hasher.
func (r Registration) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	name := strings.TrimSpace(r.FullName)
	if name == "" {
		return Invalid("full name is required")
	}
	if utf8.RuneCountInString(name) > maxFullNameLength {
		return Invalidf("full name must be at most %d characters", maxFullNameLength)
	}
	return nil
}

// ValidateEmail requires a bare address ("a@b.c"), not a display-name form.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return Invalidf("invalid email address: %q", email)
	}
	return nil
}
