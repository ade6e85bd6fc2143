package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sladeshProAPI/internal/geo"
	"sladeshProAPI/internal/types/channel"
)

// First channel list creates the open channel and joins the user silently.
func TestListForUserJoinsDefaultChannel(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")

	ctx := context.Background()
	channels, err := env.channels.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, channel.DefaultChannelID, channels[0].ID)

	ok, err := env.channels.IsMember(ctx, channel.DefaultChannelID, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateChannelJoinsCreator(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")

	ctx := context.Background()
	ch, err := env.channels.Create(ctx, "u1", &channel.CreateChannelRequest{Name: "Fredagsbar", AccessCode: "fb2025"})
	require.NoError(t, err)
	require.NotEmpty(t, ch.ID)

	ok, err := env.channels.IsMember(ctx, ch.ID, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Created channels sort after the default open channel.
	channels, err := env.channels.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, channel.DefaultChannelID, channels[0].ID)
	assert.Equal(t, ch.ID, channels[1].ID)
}

func TestJoinByAccessCode(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")
	env.seedUser(t, "u2", "Sofie")

	ctx := context.Background()
	created, err := env.channels.Create(ctx, "u1", &channel.CreateChannelRequest{Name: "Fredagsbar", AccessCode: "fb2025"})
	require.NoError(t, err)

	joined, err := env.channels.JoinByAccessCode(ctx, "u2", "fb2025")
	require.NoError(t, err)
	assert.Equal(t, created.ID, joined.ID)

	ok, err := env.channels.IsMember(ctx, created.ID, "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJoinByAccessCodeUnknown(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")

	_, err := env.channels.JoinByAccessCode(context.Background(), "u1", "wrong-code")
	assert.Error(t, err)
}

func TestCheckedInMemberLocations(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")
	env.seedUser(t, "u2", "Sofie")
	env.seedUser(t, "u3", "Emil")
	env.seedChannel(t, "ch1", "u1", "u2", "u3")

	ctx := context.Background()
	require.NoError(t, env.checkIns.CheckIn(ctx, "u1", "ch1", &geo.Point{Latitude: 55.0, Longitude: 12.0}))
	// u2 checks in without sharing a location, u3 stays home.
	require.NoError(t, env.checkIns.CheckIn(ctx, "u2", "ch1", nil))

	points, err := env.channels.CheckedInMemberLocations(ctx, "ch1")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "u1", points[0].UserID)
	assert.Equal(t, "Mads", points[0].Username)
	assert.InDelta(t, 55.0, points[0].Latitude, 1e-9)
}
