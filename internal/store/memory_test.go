package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.Get(ctx, "users", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Put(ctx, "users", "u1", map[string]any{"username": "mads", "totalDrinks": 2}))

	doc, err := m.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "mads", AsString(doc.Fields["username"]))
	assert.Equal(t, 2, AsInt(doc.Fields["totalDrinks"]))

	require.NoError(t, m.Update(ctx, "users", "u1", map[string]any{"totalDrinks": 3}))
	doc, err = m.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, AsInt(doc.Fields["totalDrinks"]))
	assert.Equal(t, "mads", AsString(doc.Fields["username"]), "update must not drop untouched fields")

	assert.ErrorIs(t, m.Update(ctx, "users", "missing", map[string]any{"x": 1}), ErrNotFound)

	require.NoError(t, m.Delete(ctx, "users", "u1"))
	_, err = m.Get(ctx, "users", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting something that is already gone is not an error.
	assert.NoError(t, m.Delete(ctx, "users", "u1"))
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Put(ctx, "users", "u1", map[string]any{"drinks": map[string]any{"beer": 1}}))

	doc, err := m.Get(ctx, "users", "u1")
	require.NoError(t, err)
	doc.Fields["drinks"].(map[string]any)["beer"] = 99

	doc, err = m.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, AsInt(doc.Fields["drinks"].(map[string]any)["beer"]))
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	base := time.Date(2025, 8, 30, 20, 0, 0, 0, time.UTC)
	for i, id := range []string{"n1", "n2", "n3"} {
		require.NoError(t, m.Put(ctx, "notifications", id, map[string]any{
			"channelId": "ch1",
			"watched":   id == "n2",
			"timestamp": base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, m.Put(ctx, "notifications", "other", map[string]any{
		"channelId": "ch2",
		"watched":   false,
		"timestamp": base,
	}))

	docs, err := m.Query(ctx, "notifications", QueryOptions{
		Filters: []Filter{
			{Field: "channelId", Op: "==", Value: "ch1"},
			{Field: "watched", Op: "==", Value: false},
		},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "n1", docs[0].ID)
	assert.Equal(t, "n3", docs[1].ID)

	docs, err = m.Query(ctx, "notifications", QueryOptions{
		Filters: []Filter{{Field: "channelId", Op: "==", Value: "ch1"}},
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "n3", docs[0].ID)
	assert.Equal(t, "n2", docs[1].ID)

	docs, err = m.Query(ctx, "notifications", QueryOptions{
		Filters: []Filter{{Field: "timestamp", Op: ">=", Value: base.Add(time.Minute)}},
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = m.Query(ctx, "empty-path", QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAsTime(t *testing.T) {
	now := time.Date(2025, 8, 30, 20, 0, 0, 0, time.UTC)

	got, ok := AsTime(now)
	require.True(t, ok)
	assert.True(t, got.Equal(now))

	got, ok = AsTime(now.Format(time.RFC3339Nano))
	require.True(t, ok)
	assert.True(t, got.Equal(now))

	_, ok = AsTime(nil)
	assert.False(t, ok)
	_, ok = AsTime("not a timestamp")
	assert.False(t, ok)
}
