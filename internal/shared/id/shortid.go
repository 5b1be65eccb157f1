// Package id generates Stripe-style prefixed identifiers.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 16
)

// PrefixUpload marks upload record identifiers.
const PrefixUpload = "upl"

// Generate creates a random short ID with the specified length using Base62 encoding.
// The generated ID is cryptographically random and URL-safe.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// GenerateWithPrefix creates a prefixed ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + id, nil
}

// NewUploadID generates a new upload identifier, e.g. "upl_3kTMd9Qx0aLw1BzR".
func NewUploadID() (string, error) {
	return GenerateWithPrefix(PrefixUpload, DefaultLength)
}

// ValidatePrefix checks that prefixedID is "<expectedPrefix>_<base62>".
func ValidatePrefix(prefixedID, expectedPrefix string) error {
	prefix, short, ok := strings.Cut(prefixedID, "_")
	if !ok || short == "" {
		return fmt.Errorf("invalid prefixed ID format: %q", prefixedID)
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("invalid prefix: expected %s, got %s", expectedPrefix, prefix)
	}
	for i := 0; i < len(short); i++ {
		if !strings.ContainsRune(alphabet, rune(short[i])) {
			return fmt.Errorf("invalid character %q in ID %q", short[i], prefixedID)
		}
	}
	return nil
}
