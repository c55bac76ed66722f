package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes
	MaxPasswordBytes  = 72
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
	ErrPasswordTooWeak  = errors.New("password must contain at least one lowercase letter, one uppercase letter, and one number")
	ErrUsernameLength   = errors.New("username must be between 3 and 30 characters")
	ErrUsernameInvalid  = errors.New("username can only contain letters, numbers, and underscores")
)

// ValidateUsername reports every problem with a candidate username.
func ValidateUsername(username string) []error {
	var errs []error
	if n := len([]rune(username)); n < MinUsernameLength || n > MaxUsernameLength {
		errs = append(errs, ErrUsernameLength)
	}
	if username != "" && !usernamePattern.MatchString(username) {
		errs = append(errs, ErrUsernameInvalid)
	}
	return errs
}

// ValidatePassword reports every problem with a candidate password.
func ValidatePassword(password string) []error {
	var errs []error
	if len([]rune(password)) < MinPasswordLength {
		errs = append(errs, ErrPasswordTooShort)
	}
	if len(password) > MaxPasswordBytes {
		errs = append(errs, ErrPasswordTooLong)
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		errs = append(errs, ErrPasswordTooWeak)
	}
	return errs
}

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash is a mismatch.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSecret creates a random hex secret of n bytes.
func GenerateSecret(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
