// Package tokens signs and verifies the compact HS256 credentials used for
// access and refresh. The two classes differ only in secret, TTL and the
// presence of a JTI on refresh tokens.
package tokens

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"postboard/internal/httperr"
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the numeric Subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, httperr.ErrTokenMalformed
	}
	return uint(id), nil
}

func newClaims(userID uint, email, role string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// SignAccess issues a short-lived access token.
func SignAccess(userID uint, email, role string, secret []byte, ttl time.Duration) (string, error) {
	claims := newClaims(userID, email, role, ttl)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// SignRefresh issues a refresh token. The JTI makes every issuance unique,
// so rotation always changes the signature segment.
func SignRefresh(userID uint, email, role string, secret []byte, ttl time.Duration) (string, error) {
	claims := newClaims(userID, email, role, ttl)
	claims.ID = uuid.NewString()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Parse verifies signature and expiry, mapping failures onto the service
// error taxonomy.
func Parse(raw string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, httperr.ErrBadSignature
		}
		return secret, nil
	})
	switch {
	case err == nil && tkn.Valid:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, httperr.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, httperr.ErrBadSignature):
		return nil, httperr.ErrBadSignature
	default:
		return nil, httperr.ErrTokenMalformed
	}
}

// SignatureSegment returns the third dot-separated part of a compact token.
// It is the unforgeable tail, hashed at rest for stale-refresh detection.
func SignatureSegment(raw string) (string, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[2] == "" {
		return "", httperr.ErrTokenMalformed
	}
	return parts[2], nil
}
