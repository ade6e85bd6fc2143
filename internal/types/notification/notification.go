package notification

import (
	"time"

	"sladeshProAPI/internal/store"
)

const Collection = "notifications"

// Notification is an in-app feed record. Push delivery is a best-effort side
// channel on top of it, never a prerequisite.
type Notification struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channelId"`
	RecipientUID string    `json:"recipientUID,omitempty"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Watched      bool      `json:"watched"`
}

func FromDocument(doc *store.Document) *Notification {
	n := &Notification{
		ID:           doc.ID,
		ChannelID:    store.AsString(doc.Fields["channelId"]),
		RecipientUID: store.AsString(doc.Fields["recipientUID"]),
		Message:      store.AsString(doc.Fields["message"]),
		Watched:      store.AsBool(doc.Fields["watched"]),
	}
	if ts, ok := store.AsTime(doc.Fields["timestamp"]); ok {
		n.Timestamp = ts
	}
	return n
}

func (n *Notification) Fields() map[string]any {
	return map[string]any{
		"channelId":    n.ChannelID,
		"recipientUID": n.RecipientUID,
		"message":      n.Message,
		"timestamp":    n.Timestamp,
		"watched":      n.Watched,
	}
}
