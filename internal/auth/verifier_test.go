package auth

import (
	"testing"
	"time"

	"github.com/citylink/citylink/internal/models"
	"github.com/citylink/citylink/internal/store/sqlstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func newTestVerifier(t *testing.T) (*Verifier, *sqlstore.SQLStore) {
	t.Helper()
	s, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewVerifier(s, testSecret, zerolog.Nop()), s
}

func TestSessionRoundTrip(t *testing.T) {
	v, _ := newTestVerifier(t)
	identity := models.Identity{ID: 7, Username: "kari", IsAdmin: true}

	token, err := v.SignSession(identity)
	require.NoError(t, err)

	got, err := v.VerifySession(token)
	require.NoError(t, err)
	require.Equal(t, identity, got)
}

func TestSessionSnapshotIsFixedAtIssuance(t *testing.T) {
	v, s := newTestVerifier(t)
	user := &models.User{Email: "kari@example.com", Username: "kari", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(user))

	token, err := v.SignSession(models.Identity{ID: user.ID, Username: user.Username})
	require.NoError(t, err)

	// A later profile edit does not change what the token verifies to.
	require.NoError(t, s.UpdateProfile(user.ID, "renamed", ""))
	got, err := v.VerifySession(token)
	require.NoError(t, err)
	require.Equal(t, "kari", got.Username)
}

func TestAPIKeyReturnsCurrentIdentity(t *testing.T) {
	v, s := newTestVerifier(t)
	user := &models.User{Email: "kari@example.com", Username: "kari", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(user))
	require.NoError(t, s.SetAPIToken(user.ID, "live-token"))

	got, err := v.VerifyAPIKey("live-token")
	require.NoError(t, err)
	require.Equal(t, "kari", got.Username)

	// The API key path is a live lookup, not a snapshot.
	require.NoError(t, s.UpdateProfile(user.ID, "renamed", ""))
	got, err = v.VerifyAPIKey("live-token")
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Username)
}

func TestFailureModesAreIndistinguishable(t *testing.T) {
	v, _ := newTestVerifier(t)

	expired, err := signSession(testSecret, models.Identity{ID: 1, Username: "kari"}, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := signSession([]byte("other-secret"), models.Identity{ID: 1, Username: "kari"}, time.Hour)
	require.NoError(t, err)

	for name, verify := range map[string]func() error{
		"expired session":   func() error { _, err := v.VerifySession(expired); return err },
		"bad signature":     func() error { _, err := v.VerifySession(wrongKey); return err },
		"malformed session": func() error { _, err := v.VerifySession("not-a-jwt"); return err },
		"empty session":     func() error { _, err := v.VerifySession(""); return err },
		"unknown api key":   func() error { _, err := v.VerifyAPIKey("no-such-token"); return err },
		"empty api key":     func() error { _, err := v.VerifyAPIKey("  "); return err },
	} {
		require.ErrorIs(t, verify(), ErrInvalidCredential, name)
	}
}

func TestRequireAdmin(t *testing.T) {
	require.NoError(t, RequireAdmin(models.Identity{ID: 1, IsAdmin: true}))
	require.ErrorIs(t, RequireAdmin(models.Identity{ID: 1}), ErrForbidden)
}

func TestNewAPIToken(t *testing.T) {
	one, err := NewAPIToken()
	require.NoError(t, err)
	require.Len(t, one, 64)

	two, err := NewAPIToken()
	require.NoError(t, err)
	require.NotEqual(t, one, two)
}

func TestMaskAPIToken(t *testing.T) {
	require.Equal(t, "abcd...wxyz", MaskAPIToken("abcdefghijklmnopqrstuvwxyz"))
	require.Equal(t, "********", MaskAPIToken("short"))
}
