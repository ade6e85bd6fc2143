package user

import (
	"time"

	"sladeshProAPI/internal/geo"
	"sladeshProAPI/internal/store"
)

const Collection = "users"

type User struct {
	UID                    string         `json:"uid"`
	Username               string         `json:"username"`
	IsCheckedIn            bool           `json:"isCheckedIn"`
	Drinks                 map[string]int `json:"drinks"`
	TotalDrinks            int            `json:"totalDrinks"`
	LastLocation           *geo.Point     `json:"lastLocation,omitempty"`
	LastSladeshTimestamp   *time.Time     `json:"lastSladeshTimestamp,omitempty"`
	FCMToken               string         `json:"fcmToken,omitempty"`
	ProfileImageURL        string         `json:"profileImageUrl,omitempty"`
	ProfileBackgroundColor string         `json:"profileBackgroundColor,omitempty"`
	HasCompletedOnboarding bool           `json:"hasCompletedOnboarding"`
}

type UpdateProfileRequest struct {
	Username               string `json:"username"`
	ProfileImageURL        string `json:"profileImageUrl"`
	ProfileBackgroundColor string `json:"profileBackgroundColor"`
	HasCompletedOnboarding *bool  `json:"hasCompletedOnboarding"`
}

type RegisterDeviceRequest struct {
	Token string `json:"token"`
}

// FromDocument decodes a user document regardless of which store backend
// produced it.
func FromDocument(doc *store.Document) *User {
	u := &User{
		UID:                    doc.ID,
		Username:               store.AsString(doc.Fields["username"]),
		IsCheckedIn:            store.AsBool(doc.Fields["isCheckedIn"]),
		Drinks:                 store.AsIntMap(doc.Fields["drinks"]),
		TotalDrinks:            store.AsInt(doc.Fields["totalDrinks"]),
		FCMToken:               store.AsString(doc.Fields["fcmToken"]),
		ProfileImageURL:        store.AsString(doc.Fields["profileImageUrl"]),
		ProfileBackgroundColor: store.AsString(doc.Fields["profileBackgroundColor"]),
		HasCompletedOnboarding: store.AsBool(doc.Fields["hasCompletedOnboarding"]),
	}
	if loc := store.AsMap(doc.Fields["lastLocation"]); loc != nil {
		u.LastLocation = &geo.Point{
			Latitude:  store.AsFloat(loc["latitude"]),
			Longitude: store.AsFloat(loc["longitude"]),
		}
	}
	if ts, ok := store.AsTime(doc.Fields["lastSladeshTimestamp"]); ok {
		u.LastSladeshTimestamp = &ts
	}
	return u
}

// DefaultFields is the document written for a user on first profile access.
func DefaultFields(username string) map[string]any {
	return map[string]any{
		"username":               username,
		"isCheckedIn":            false,
		"drinks":                 map[string]any{},
		"totalDrinks":            0,
		"lastLocation":           nil,
		"lastSladeshTimestamp":   nil,
		"hasCompletedOnboarding": false,
	}
}
