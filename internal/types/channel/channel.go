package channel

import "sladeshProAPI/internal/store"

const (
	Collection = "channels"

	// DefaultChannelID is the open channel every user is lazily joined to the
	// first time they fetch their channel list.
	DefaultChannelID   = "DenAbneKanal"
	DefaultChannelName = "Den Åbne Kanal"
)

type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AccessCode string `json:"accessCode,omitempty"`
}

type Member struct {
	UserUID string `json:"userUID"`
}

type CreateChannelRequest struct {
	Name       string `json:"name"`
	AccessCode string `json:"accessCode"`
}

type JoinChannelRequest struct {
	AccessCode string `json:"accessCode"`
}

func FromDocument(doc *store.Document) *Channel {
	return &Channel{
		ID:         doc.ID,
		Name:       store.AsString(doc.Fields["name"]),
		AccessCode: store.AsString(doc.Fields["accessCode"]),
	}
}

// MembersPath is the members subcollection of a channel. Each member document
// is keyed by the user's uid and carries a single userUID field, matching the
// subcollection shape the mobile client queries.
func MembersPath(channelID string) string {
	return Collection + "/" + channelID + "/members"
}
