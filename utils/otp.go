package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
)

const (
	otpMin  = 100000
	otpSpan = 900000
)

// GenerateOTP returns a uniformly random six digit code
func GenerateOTP() (string, error) {
	return generateOTP(rand.Reader)
}

func generateOTP(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(otpSpan))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", otpMin+n.Int64()), nil
}

// OTPMatches compares codes in constant time
func OTPMatches(expected, given string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
