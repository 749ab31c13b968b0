package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndlovu-dev/inkwell/internal/database/testutil"
	apperrors "github.com/ndlovu-dev/inkwell/pkg/errors"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *JWTService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	testutil.MustCreateUser(t, db, "user-1", "thandi")

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour})
	require.NoError(t, err)

	authn, err := NewAuthenticator(db, jwtSvc)
	require.NoError(t, err)

	return authn, jwtSvc
}

func TestAuthenticateResolvesUser(t *testing.T) {
	authn, jwtSvc := newTestAuthenticator(t)

	token, err := jwtSvc.GenerateAccessToken("user-1", "thandi")
	require.NoError(t, err)

	user, err := authn.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, "thandi", user.Username)
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	authn, _ := newTestAuthenticator(t)

	_, err := authn.Authenticate(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	authn, _ := newTestAuthenticator(t)

	_, err := authn.Authenticate(context.Background(), "  ")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuthenticateRejectsDeletedIdentity(t *testing.T) {
	authn, jwtSvc := newTestAuthenticator(t)

	// Valid signature, identity that never existed.
	token, err := jwtSvc.GenerateAccessToken("user-gone", "ghost")
	require.NoError(t, err)

	_, err = authn.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
