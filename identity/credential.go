package identity

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// CREDENTIAL HASHING
// =============================================================================
// The engine stores credential material as opaque bcrypt hashes. These helpers
// are the only place plaintext is handled; everything else moves hashes around.

// HashSecret hashes a credential or security answer for storage.
func HashSecret(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret checks plaintext against a stored hash.
func VerifySecret(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashSecurityAnswer lowercases before hashing so answers compare
// case-insensitively.
func HashSecurityAnswer(answer string) (string, error) {
	return HashSecret(strings.ToLower(strings.TrimSpace(answer)))
}

// VerifySecurityAnswer checks an answer with the same normalization.
func VerifySecurityAnswer(hash, answer string) bool {
	return VerifySecret(hash, strings.ToLower(strings.TrimSpace(answer)))
}
