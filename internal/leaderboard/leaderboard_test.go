package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	entries := []*Entry{
		{UserID: "a", TotalDrinks: 3},
		{UserID: "b", TotalDrinks: 7},
		{UserID: "c", TotalDrinks: 5},
	}

	position, total := Rank(entries, "c")
	assert.Equal(t, 2, position)
	assert.Equal(t, 3, total)

	require.Equal(t, "b", entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "c", entries[1].UserID)
	assert.Equal(t, "a", entries[2].UserID)
	assert.Equal(t, 3, entries[2].Rank)
}

// Equal totals keep their input order.
func TestRankStableTies(t *testing.T) {
	entries := []*Entry{
		{UserID: "first", TotalDrinks: 4},
		{UserID: "second", TotalDrinks: 4},
		{UserID: "third", TotalDrinks: 4},
	}

	position, total := Rank(entries, "second")
	assert.Equal(t, 2, position)
	assert.Equal(t, 3, total)
	assert.Equal(t, "first", entries[0].UserID)
	assert.Equal(t, "second", entries[1].UserID)
	assert.Equal(t, "third", entries[2].UserID)
}

func TestRankTargetMissing(t *testing.T) {
	entries := []*Entry{{UserID: "a", TotalDrinks: 1}}

	position, total := Rank(entries, "nope")
	assert.Equal(t, 0, position)
	assert.Equal(t, 1, total)
}

func TestRankEmpty(t *testing.T) {
	position, total := Rank(nil, "a")
	assert.Equal(t, 0, position)
	assert.Equal(t, 0, total)
}
