package sladesh

import (
	"fmt"
	"time"

	"sladeshProAPI/internal/store"
)

// Cooldown is the minimum gap between two sladesh sends from the same user.
const Cooldown = 12 * time.Hour

// ReceivedSubcollection and SentSubcollection are per-user mirrors of the
// same challenge, both keyed by the sladesh id.
const (
	ReceivedSubcollection = "sladesh"
	SentSubcollection     = "sladeshSent"
)

type Sladesh struct {
	ID        string    `json:"id"`
	FromUID   string    `json:"fromUID"`
	FromName  string    `json:"fromName"`
	ToUID     string    `json:"toUID"`
	ToName    string    `json:"toName"`
	ChannelID string    `json:"channelId"`
	Message   string    `json:"message,omitempty"`
	SentAt    time.Time `json:"sentAt"`
	Completed bool      `json:"completed"`
}

// CooldownActiveError is returned when a send is attempted before 12 hours
// have elapsed since the sender's previous sladesh.
type CooldownActiveError struct {
	NextAllowedAt time.Time
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("sladesh cooldown active until %s", e.NextAllowedAt.Format(time.RFC3339))
}

// NewID builds the document id for a fresh sladesh. Millisecond timestamp
// plus receiver id keeps ids unique per sender and sortable by creation time.
func NewID(sentAt time.Time, receiverID string) string {
	return fmt.Sprintf("%d-%s", sentAt.UnixMilli(), receiverID)
}

func FromDocument(doc *store.Document) *Sladesh {
	s := &Sladesh{
		ID:        doc.ID,
		FromUID:   store.AsString(doc.Fields["fromUID"]),
		FromName:  store.AsString(doc.Fields["fromName"]),
		ToUID:     store.AsString(doc.Fields["toUID"]),
		ToName:    store.AsString(doc.Fields["toName"]),
		ChannelID: store.AsString(doc.Fields["channelId"]),
		Message:   store.AsString(doc.Fields["message"]),
		Completed: store.AsBool(doc.Fields["completed"]),
	}
	if ts, ok := store.AsTime(doc.Fields["sentAt"]); ok {
		s.SentAt = ts
	}
	return s
}

func (s *Sladesh) Fields() map[string]any {
	return map[string]any{
		"fromUID":   s.FromUID,
		"fromName":  s.FromName,
		"toUID":     s.ToUID,
		"toName":    s.ToName,
		"channelId": s.ChannelID,
		"message":   s.Message,
		"sentAt":    s.SentAt,
		"completed": s.Completed,
	}
}

// ReceivedPath and SentPath are the subcollection paths for a given user.
func ReceivedPath(uid string) string {
	return "users/" + uid + "/" + ReceivedSubcollection
}

func SentPath(uid string) string {
	return "users/" + uid + "/" + SentSubcollection
}
