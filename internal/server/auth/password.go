package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when a user has no usable password so the
// failure path costs as much as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("agritrust-unusable-password"), bcrypt.DefaultCost)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether password matches hash. A nil hash is an
// unusable credential and never matches.
func VerifyPassword(hash *string, password string) bool {
	if hash == nil || *hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(password)) == nil
}
