package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/user"
)

func TestEnsureUserCreatesDefaults(t *testing.T) {
	env := newTestEnv()

	ctx := context.Background()
	u, err := env.users.EnsureUser(ctx, "u1", "Mads")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UID)
	assert.Equal(t, "Mads", u.Username)
	assert.False(t, u.IsCheckedIn)
	assert.Zero(t, u.TotalDrinks)

	// Second call reads the existing document; the username argument does not
	// overwrite the stored profile.
	u, err = env.users.EnsureUser(ctx, "u1", "SomeoneElse")
	require.NoError(t, err)
	assert.Equal(t, "Mads", u.Username)
}

func TestUpdateProfilePartial(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")

	done := true
	u, err := env.users.UpdateProfile(context.Background(), "u1", &user.UpdateProfileRequest{
		ProfileBackgroundColor: "#ff8800",
		HasCompletedOnboarding: &done,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mads", u.Username, "unset fields stay untouched")
	assert.Equal(t, "#ff8800", u.ProfileBackgroundColor)
	assert.True(t, u.HasCompletedOnboarding)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	env := newTestEnv()

	_, err := env.users.UpdateProfile(context.Background(), "ghost", &user.UpdateProfileRequest{Username: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterDeviceToken(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")

	ctx := context.Background()
	require.NoError(t, env.users.RegisterDeviceToken(ctx, "u1", "fcm-token"))

	u, err := env.users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "fcm-token", u.FCMToken)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")

	ctx := context.Background()
	require.NoError(t, env.users.DeleteUser(ctx, "u1"))

	_, err := env.users.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
