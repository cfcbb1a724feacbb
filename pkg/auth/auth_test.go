package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/Astemirdum/local-library/pkg/auth"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	secret := []byte("secret")
	token, err := auth.NewToken(secret, auth.Profile{Username: "jdoe", Role: auth.RoleLibrarian}, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseToken(secret, token)
	require.NoError(t, err)
	require.Equal(t, "jdoe", claims.Profile.Username)
	require.Equal(t, auth.RoleLibrarian, claims.Profile.Role)
}

func TestParseToken_Rejects(t *testing.T) {
	secret := []byte("secret")
	expired, err := auth.NewToken(secret, auth.Profile{Username: "jdoe"}, -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.NewToken([]byte("other"), auth.Profile{Username: "jdoe"}, time.Hour)
	require.NoError(t, err)
	anonymous, err := auth.NewToken(secret, auth.Profile{}, time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"signature": foreign,
		"no user":   anonymous,
		"garbage":   "not-a-token",
	} {
		_, err := auth.ParseToken(secret, token)
		require.ErrorIs(t, err, auth.ErrInvalidToken, name)
	}
}

func TestAuthContext(t *testing.T) {
	ctx := context.Background()
	_, ok := auth.UserName(ctx)
	require.False(t, ok)
	require.False(t, auth.CanMarkReturned(ctx))

	ctx = auth.SetAuthContext(ctx, "jdoe", auth.RoleUser)
	name, ok := auth.UserName(ctx)
	require.True(t, ok)
	require.Equal(t, "jdoe", name)
	require.False(t, auth.CanMarkReturned(ctx))

	ctx = auth.SetAuthContext(ctx, "admin", auth.RoleLibrarian)
	require.True(t, auth.CanMarkReturned(ctx))
}
