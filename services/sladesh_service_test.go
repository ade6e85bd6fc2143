package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/sladesh"
)

func newSendRequest() *SendSladeshRequest {
	return &SendSladeshRequest{
		SenderID:     "sender",
		SenderName:   "Mads",
		ReceiverID:   "receiver",
		ReceiverName: "Sofie",
		ChannelID:    "ch1",
		Message:      "Skål!",
	}
}

func TestCanSendNoHistory(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "sender", "Mads")

	ok, err := env.sladesh.CanSend(context.Background(), "sender")
	require.NoError(t, err)
	assert.True(t, ok, "a user who never sent a sladesh has no cooldown")
}

func TestCanSendCooldownBoundary(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "sender", "Mads")

	now := time.Date(2025, 8, 30, 22, 0, 0, 0, time.UTC)
	env.sladesh.now = func() time.Time { return now }

	// One second short of 12 hours: still blocked.
	env.setLastSladesh(t, "sender", now.Add(-sladesh.Cooldown+time.Second))
	ok, err := env.sladesh.CanSend(context.Background(), "sender")
	require.NoError(t, err)
	assert.False(t, ok)

	// Exactly 12 hours: allowed again.
	env.setLastSladesh(t, "sender", now.Add(-sladesh.Cooldown))
	ok, err = env.sladesh.CanSend(context.Background(), "sender")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSendRejectsActiveCooldown(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "sender", "Mads")
	env.seedUser(t, "receiver", "Sofie")

	now := time.Date(2025, 8, 30, 22, 0, 0, 0, time.UTC)
	env.sladesh.now = func() time.Time { return now }
	last := now.Add(-time.Hour)
	env.setLastSladesh(t, "sender", last)

	_, err := env.sladesh.Send(context.Background(), newSendRequest())

	var cooldownErr *sladesh.CooldownActiveError
	require.ErrorAs(t, err, &cooldownErr)
	assert.True(t, cooldownErr.NextAllowedAt.Equal(last.Add(sladesh.Cooldown)))
}

func TestSendWritesBothMirrorsAndCooldown(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "sender", "Mads")
	env.seedUser(t, "receiver", "Sofie")

	now := time.Date(2025, 8, 30, 22, 0, 0, 0, time.UTC)
	env.sladesh.now = func() time.Time { return now }

	ctx := context.Background()
	report, err := env.sladesh.Send(ctx, newSendRequest())
	require.NoError(t, err)

	require.Len(t, report.Steps, 4)
	for _, step := range report.Steps {
		assert.True(t, step.OK, "step %s should succeed", step.Step)
	}
	assert.Equal(t, sladesh.NewID(now, "receiver"), report.SladeshID)

	received, err := env.sladesh.ListReceived(ctx, "receiver", "ch1")
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "sender", received[0].FromUID)
	assert.False(t, received[0].Completed)

	sent, err := env.sladesh.ListSent(ctx, "sender", "ch1")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.False(t, sent[0].Completed)

	// Cooldown starts now: a second send is rejected.
	_, err = env.sladesh.Send(ctx, newSendRequest())
	var cooldownErr *sladesh.CooldownActiveError
	assert.ErrorAs(t, err, &cooldownErr)

	// The receiver got an addressed notification.
	notifications, err := env.notifications.List(ctx, "ch1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "receiver", notifications[0].RecipientUID)
	assert.Contains(t, notifications[0].Message, "Mads")
}

func TestCompleteMarksBothMirrors(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "sender", "Mads")
	env.seedUser(t, "receiver", "Sofie")

	now := time.Date(2025, 8, 30, 22, 0, 0, 0, time.UTC)
	env.sladesh.now = func() time.Time { return now }

	ctx := context.Background()
	report, err := env.sladesh.Send(ctx, newSendRequest())
	require.NoError(t, err)

	require.NoError(t, env.sladesh.Complete(ctx, report.SladeshID, "receiver", "sender"))

	received, err := env.sladesh.ListReceived(ctx, "receiver", "ch1")
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.True(t, received[0].Completed)

	sent, err := env.sladesh.ListSent(ctx, "sender", "ch1")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Completed)
}

func TestCompleteMissingMirrorFails(t *testing.T) {
	env := newTestEnv()

	err := env.sladesh.Complete(context.Background(), "nope", "receiver", "sender")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// The sent list never trusts its own completed flag; it resolves against the
// receiver mirror, and a purged mirror reads as not completed.
func TestListSentResolvesCompletedFromReceiverMirror(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "sender", "Mads")
	env.seedUser(t, "receiver", "Sofie")

	now := time.Date(2025, 8, 30, 22, 0, 0, 0, time.UTC)
	env.sladesh.now = func() time.Time { return now }

	ctx := context.Background()
	report, err := env.sladesh.Send(ctx, newSendRequest())
	require.NoError(t, err)

	// Flip only the receiver mirror, as Complete's first write would.
	require.NoError(t, env.store.Update(ctx, sladesh.ReceivedPath("receiver"), report.SladeshID, map[string]any{
		"completed": true,
	}))

	sent, err := env.sladesh.ListSent(ctx, "sender", "ch1")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Completed)

	require.NoError(t, env.store.Delete(ctx, sladesh.ReceivedPath("receiver"), report.SladeshID))
	sent, err = env.sladesh.ListSent(ctx, "sender", "ch1")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.False(t, sent[0].Completed)
}

func TestHasUncompleted(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "sender", "Mads")
	env.seedUser(t, "receiver", "Sofie")

	ctx := context.Background()
	item, err := env.sladesh.HasUncompleted(ctx, "receiver")
	require.NoError(t, err)
	assert.Nil(t, item)

	now := time.Date(2025, 8, 30, 22, 0, 0, 0, time.UTC)
	env.sladesh.now = func() time.Time { return now }
	report, err := env.sladesh.Send(ctx, newSendRequest())
	require.NoError(t, err)

	item, err = env.sladesh.HasUncompleted(ctx, "receiver")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, report.SladeshID, item.ID)

	require.NoError(t, env.sladesh.Complete(ctx, report.SladeshID, "receiver", "sender"))
	item, err = env.sladesh.HasUncompleted(ctx, "receiver")
	require.NoError(t, err)
	assert.Nil(t, item)
}

// Two senders hitting the same receiver keep the oldest challenge first.
func TestHasUncompletedReturnsOldest(t *testing.T) {
	env := newTestEnv()
	env.seedUser(t, "sender", "Mads")
	env.seedUser(t, "other", "Emil")
	env.seedUser(t, "receiver", "Sofie")

	ctx := context.Background()
	now := time.Date(2025, 8, 30, 22, 0, 0, 0, time.UTC)

	env.sladesh.now = func() time.Time { return now }
	first, err := env.sladesh.Send(ctx, newSendRequest())
	require.NoError(t, err)

	env.sladesh.now = func() time.Time { return now.Add(time.Minute) }
	otherReq := newSendRequest()
	otherReq.SenderID = "other"
	otherReq.SenderName = "Emil"
	_, err = env.sladesh.Send(ctx, otherReq)
	require.NoError(t, err)

	item, err := env.sladesh.HasUncompleted(ctx, "receiver")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, first.SladeshID, item.ID)
}
