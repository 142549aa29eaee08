package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooShort rejects registration passwords below the minimum
// length. The check lives here so every signup path shares one rule.
var ErrPasswordTooShort = errors.New("password must have at least 8 characters")

const (
	minPasswordLen = 8
	hashCost       = 12
)

// HashPassword derives the bcrypt hash stored on the user record.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
