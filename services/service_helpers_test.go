package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/user"
)

// testEnv wires every service against one in-memory store, the same shape
// main.go builds in production.
type testEnv struct {
	store         *store.MemoryStore
	users         *UserService
	channels      *ChannelService
	notifications *NotificationService
	checkIns      *CheckInService
	sladesh       *SladeshService
	comments      *CommentService
}

func newTestEnv() *testEnv {
	m := store.NewMemoryStore()
	notifications := NewNotificationService(m)
	channels := NewChannelService(m)
	return &testEnv{
		store:         m,
		users:         NewUserService(m),
		channels:      channels,
		notifications: notifications,
		checkIns:      NewCheckInService(m, notifications, channels),
		sladesh:       NewSladeshService(m, notifications),
		comments:      NewCommentService(m, channels),
	}
}

func (e *testEnv) seedUser(t *testing.T, uid, username string) {
	t.Helper()
	require.NoError(t, e.store.Put(context.Background(), user.Collection, uid, user.DefaultFields(username)))
}

func (e *testEnv) seedChannel(t *testing.T, channelID string, memberUIDs ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.Put(ctx, "channels", channelID, map[string]any{
		"name":       channelID,
		"accessCode": "code-" + channelID,
	}))
	for _, uid := range memberUIDs {
		require.NoError(t, e.channels.AddMember(ctx, channelID, uid))
	}
}

func (e *testEnv) setLastSladesh(t *testing.T, uid string, ts time.Time) {
	t.Helper()
	require.NoError(t, e.store.Update(context.Background(), user.Collection, uid, map[string]any{
		"lastSladeshTimestamp": ts,
	}))
}
