package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/citylink/citylink/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is how long a signed session token stays valid.
const SessionTTL = 2 * time.Hour

var (
	errExpiredToken = errors.New("token has expired")
	errBadToken     = errors.New("invalid token")
)

// SessionClaims carry a snapshot of the Identity at issuance. A later
// profile edit is not reflected until the next login; accepted tradeoff.
type SessionClaims struct {
	UserID   int    `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

func signSession(secret []byte, identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:   identity.ID,
		Username: identity.Username,
		IsAdmin:  identity.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

func parseSession(secret []byte, tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errExpiredToken
		}
		return nil, errBadToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errBadToken
	}
	return claims, nil
}

// NewAPIToken generates a 32-byte random secret, hex encoded. The full
// value is shown to the user exactly once, at generation time.
func NewAPIToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// MaskAPIToken returns the display form of a stored token: first and
// last four characters only.
func MaskAPIToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
