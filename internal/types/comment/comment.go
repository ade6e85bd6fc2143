package comment

import (
	"time"

	"sladeshProAPI/internal/store"
)

const Collection = "comments"

// DailyLimit caps comments per user per channel per calendar day.
const DailyLimit = 5

type Comment struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

func FromDocument(doc *store.Document) *Comment {
	c := &Comment{
		ID:        doc.ID,
		ChannelID: store.AsString(doc.Fields["channelId"]),
		UserID:    store.AsString(doc.Fields["userId"]),
		UserName:  store.AsString(doc.Fields["userName"]),
		Text:      store.AsString(doc.Fields["text"]),
	}
	if ts, ok := store.AsTime(doc.Fields["timestamp"]); ok {
		c.Timestamp = ts
	}
	return c
}

func (c *Comment) Fields() map[string]any {
	return map[string]any{
		"channelId": c.ChannelID,
		"userId":    c.UserID,
		"userName":  c.UserName,
		"text":      c.Text,
		"timestamp": c.Timestamp,
	}
}
