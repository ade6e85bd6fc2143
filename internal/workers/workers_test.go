package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/comment"
	"sladeshProAPI/internal/types/sladesh"
	"sladeshProAPI/internal/types/user"
)

type fakeResetter struct {
	uids []string
}

func (f *fakeResetter) ResetForNewDay(ctx context.Context, uid string) error {
	f.uids = append(f.uids, uid)
	return nil
}

func TestUntilNextRun(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	require.NoError(t, err)

	morning := time.Date(2025, 8, 30, 8, 0, 0, 0, loc)
	assert.Equal(t, 2*time.Hour, untilNextRun(morning))

	// At or past 10:00 the run slips to tomorrow.
	atTen := time.Date(2025, 8, 30, 10, 0, 0, 0, loc)
	assert.Equal(t, 24*time.Hour, untilNextRun(atTen))

	evening := time.Date(2025, 8, 30, 22, 0, 0, 0, loc)
	assert.Equal(t, 12*time.Hour, untilNextRun(evening))
}

func TestRunMaintenance(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()

	require.NoError(t, m.Put(ctx, user.Collection, "u1", user.DefaultFields("Mads")))
	require.NoError(t, m.Put(ctx, user.Collection, "u2", user.DefaultFields("Sofie")))

	require.NoError(t, m.Put(ctx, sladesh.ReceivedPath("u1"), "s1", map[string]any{"completed": true}))
	require.NoError(t, m.Put(ctx, sladesh.SentPath("u2"), "s1", map[string]any{"completed": true}))

	now := time.Now().UTC()
	require.NoError(t, m.Put(ctx, comment.Collection, "old", map[string]any{
		"channelId": "ch1",
		"timestamp": now.Add(-48 * time.Hour),
	}))
	require.NoError(t, m.Put(ctx, comment.Collection, "fresh", map[string]any{
		"channelId": "ch1",
		"timestamp": now,
	}))

	resetter := &fakeResetter{}
	runMaintenance(m, resetter, time.UTC)

	assert.ElementsMatch(t, []string{"u1", "u2"}, resetter.uids)

	docs, err := m.Query(ctx, sladesh.ReceivedPath("u1"), store.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = m.Query(ctx, sladesh.SentPath("u2"), store.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = m.Query(ctx, comment.Collection, store.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fresh", docs[0].ID)
}
