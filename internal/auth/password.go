package auth

import "golang.org/x/crypto/bcrypt"

// passwordCost matches the work factor used for all stored credentials.
const passwordCost = 10

// HashPassword derives a bcrypt digest for storage. The plaintext is never
// persisted anywhere.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), passwordCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether plaintext matches the stored digest.
// An empty digest (accounts created through federated login) never matches.
func VerifyPassword(digest, plaintext string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
