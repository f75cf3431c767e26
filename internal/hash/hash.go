package hash

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a secret with bcrypt. Empty input is still hashed;
// format validation belongs to the caller.
func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// CheckPassword reports whether password matches hash. A mismatch is a
// normal negative result, not an error.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
