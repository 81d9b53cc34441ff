// Package auth resolves session tokens and personal API tokens into a
// single Identity shape used by both the REST and live-connection paths.
package auth

import (
	"errors"
	"strings"

	"github.com/citylink/citylink/internal/models"
	"github.com/citylink/citylink/internal/store"
	"github.com/rs/zerolog"
)

// ErrInvalidCredential is the only verification failure callers see.
// Expired, malformed, and unknown credentials are indistinguishable by
// design, so a caller cannot probe which part failed.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrForbidden means the identity is valid but lacks privilege.
var ErrForbidden = errors.New("forbidden")

type Verifier struct {
	store  store.Store
	secret []byte
	logger zerolog.Logger
}

func NewVerifier(s store.Store, secret []byte, logger zerolog.Logger) *Verifier {
	return &Verifier{store: s, secret: secret, logger: logger}
}

// SignSession issues a session token carrying a snapshot of identity.
func (v *Verifier) SignSession(identity models.Identity) (string, error) {
	return signSession(v.secret, identity, SessionTTL)
}

// VerifySession validates a signed session token and returns the
// Identity snapshot embedded at issuance.
func (v *Verifier) VerifySession(token string) (models.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return models.Identity{}, ErrInvalidCredential
	}

	claims, err := parseSession(v.secret, token)
	if err != nil {
		// The distinction is kept for logs only, never for callers.
		v.logger.Debug().Err(err).Msg("session token rejected")
		return models.Identity{}, ErrInvalidCredential
	}

	return models.Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

// VerifyAPIKey looks the key up in the store and returns the current
// Identity, not a snapshot.
func (v *Verifier) VerifyAPIKey(key string) (models.Identity, error) {
	if strings.TrimSpace(key) == "" {
		return models.Identity{}, ErrInvalidCredential
	}

	user, err := v.store.GetUserByAPIToken(key)
	if err != nil {
		v.logger.Debug().Err(err).Msg("api key rejected")
		return models.Identity{}, ErrInvalidCredential
	}

	return models.Identity{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, nil
}

// RequireAdmin is checked after verification, never as part of it.
func RequireAdmin(identity models.Identity) error {
	if !identity.IsAdmin {
		return ErrForbidden
	}
	return nil
}
