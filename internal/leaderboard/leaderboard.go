package leaderboard

import "sort"

// Entry is one ranked row of a channel leaderboard.
type Entry struct {
	UserID      string         `json:"userId"`
	Username    string         `json:"username"`
	TotalDrinks int            `json:"totalDrinks"`
	Drinks      map[string]int `json:"drinks"`
	Rank        int            `json:"rank"`
}

type Leaderboard struct {
	Entries      []*Entry `json:"entries"`
	UserPosition int      `json:"userPosition"`
	TotalUsers   int      `json:"totalUsers"`
}

// Rank sorts entries by total drinks descending and returns the 1-based
// position of targetID plus the number of ranked entries. The sort is stable:
// entries with equal totals keep their input order. Position 0 means the
// target was not among the entries.
func Rank(entries []*Entry, targetID string) (int, int) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalDrinks > entries[j].TotalDrinks
	})

	position := 0
	for i, e := range entries {
		e.Rank = i + 1
		if e.UserID == targetID {
			position = i + 1
		}
	}
	return position, len(entries)
}
