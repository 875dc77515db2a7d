package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost matches the cost the store has always used for password hashes
const BcryptCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

const passwordSpecials = "@$!%*?&"

// ValidatePassword returns every policy rule the password breaks, in a fixed order
func ValidatePassword(password string) []string {
	var errs []string
	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordBytes {
		errs = append(errs, "Password must be at most 72 bytes")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		errs = append(errs, "Must contain one uppercase letter")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		errs = append(errs, "Must contain one lowercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		errs = append(errs, "Must contain one number")
	}
	if !strings.ContainsAny(password, passwordSpecials) {
		errs = append(errs, "Must contain one special character")
	}
	return errs
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
