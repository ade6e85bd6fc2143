package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sladeshProAPI/internal/types/notification"
	"sladeshProAPI/internal/types/user"
)

type fakePush struct {
	tokens []string
	titles []string
	err    error
}

func (f *fakePush) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]any) error {
	f.tokens = append(f.tokens, tokens...)
	f.titles = append(f.titles, title)
	return f.err
}

func registerToken(t *testing.T, env *testEnv, uid, token string) {
	t.Helper()
	require.NoError(t, env.store.Update(context.Background(), user.Collection, uid, map[string]any{"fcmToken": token}))
}

func TestPublishAddressedPush(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")
	env.seedUser(t, "u2", "Sofie")
	env.seedChannel(t, "ch1", "u1", "u2")
	registerToken(t, env, "u1", "token-1")
	registerToken(t, env, "u2", "token-2")

	push := &fakePush{}
	env.notifications.SetPushProvider(push)

	ctx := context.Background()
	err := env.notifications.Publish(ctx, &notification.Notification{
		ChannelID:    "ch1",
		RecipientUID: "u2",
		Message:      "Mads sent you a Sladesh!",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"token-2"}, push.tokens, "addressed notifications push to the recipient only")

	notifications, err := env.notifications.List(ctx, "ch1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].Watched)
}

func TestPublishBroadcastPush(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")
	env.seedUser(t, "u2", "Sofie")
	env.seedUser(t, "u3", "Emil")
	env.seedChannel(t, "ch1", "u1", "u2", "u3")
	registerToken(t, env, "u1", "token-1")
	registerToken(t, env, "u3", "token-3")
	// u2 has no device token and is skipped.

	push := &fakePush{}
	env.notifications.SetPushProvider(push)

	err := env.notifications.Publish(context.Background(), &notification.Notification{
		ChannelID: "ch1",
		Message:   "Mads just checked in!",
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"token-1", "token-3"}, push.tokens)
}

// Push delivery is best-effort: the stored notification is the primary
// effect and a push failure never surfaces to the caller.
func TestPublishSurvivesPushFailure(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "u1", "Mads")
	env.seedChannel(t, "ch1", "u1")
	registerToken(t, env, "u1", "token-1")

	env.notifications.SetPushProvider(&fakePush{err: assert.AnError})

	ctx := context.Background()
	err := env.notifications.Publish(ctx, &notification.Notification{ChannelID: "ch1", Message: "hello"})
	require.NoError(t, err)

	notifications, err := env.notifications.List(ctx, "ch1")
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestUnreadCountAndMarkAllWatched(t *testing.T) {
	env := newTestEnv()
	env.seedChannel(t, "ch1")

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, env.notifications.Publish(ctx, &notification.Notification{ChannelID: "ch1", Message: "ping"}))
	}
	require.NoError(t, env.notifications.Publish(ctx, &notification.Notification{ChannelID: "ch2", Message: "elsewhere"}))

	count, err := env.notifications.UnreadCount(ctx, "ch1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, env.notifications.MarkAllWatched(ctx, "ch1"))

	count, err = env.notifications.UnreadCount(ctx, "ch1")
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = env.notifications.UnreadCount(ctx, "ch2")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "other channels are untouched")
}

func TestClearAll(t *testing.T) {
	env := newTestEnv()

	ctx := context.Background()
	require.NoError(t, env.notifications.Publish(ctx, &notification.Notification{ChannelID: "ch1", Message: "ping"}))
	require.NoError(t, env.notifications.ClearAll(ctx, "ch1"))

	notifications, err := env.notifications.List(ctx, "ch1")
	require.NoError(t, err)
	assert.Empty(t, notifications)
}
