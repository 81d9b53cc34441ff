package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext returns the Identity stored by an auth middleware.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}

type Authenticator struct {
	Verifier *auth.Verifier
}

// RequireSession authorizes a request via "Authorization: Bearer <token>".
func (a *Authenticator) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.Verifier.VerifySession(bearerToken(r))
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "invalid_credential")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// RequireAuth authorizes via either the bearer session token or the
// x-api-key header. The schemes are mutually exclusive per request;
// both resolve to the same Identity shape.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer := bearerToken(r)
		apiKey := r.Header.Get("x-api-key")

		var (
			identity models.Identity
			err      error
		)
		switch {
		case bearer != "" && apiKey != "":
			err = auth.ErrInvalidCredential
		case apiKey != "":
			identity, err = a.Verifier.VerifyAPIKey(apiKey)
		default:
			identity, err = a.Verifier.VerifySession(bearer)
		}
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "invalid_credential")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// RequireAdmin gates an already-authenticated request on IsAdmin. It is
// a second, independent predicate: it never re-verifies the credential.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "invalid_credential")
			return
		}
		if err := auth.RequireAdmin(identity); err != nil {
			writeAuthError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func writeAuthError(w http.ResponseWriter, status int, category string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": category})
}
