package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/channel"
	"sladeshProAPI/internal/types/notification"
	"sladeshProAPI/internal/types/user"
)

// PushProvider delivers push notifications to device tokens. FCM in
// production; tests leave it unset.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []string, title, body string, data map[string]any) error
}

// NotificationService persists notification documents and fans them out as
// push messages. The document write is the primary effect; push is
// best-effort and never fails the caller.
type NotificationService struct {
	store store.DocumentStore
	push  PushProvider
}

func NewNotificationService(docStore store.DocumentStore) *NotificationService {
	return &NotificationService{store: docStore}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.push = p
}

// Publish writes the notification record and pushes it to the recipient, or
// to every channel member when no recipient is set.
func (s *NotificationService) Publish(ctx context.Context, n *notification.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	if err := s.store.Put(ctx, notification.Collection, n.ID, n.Fields()); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.push != nil {
		tokens, err := s.pushTargets(ctx, n)
		if err != nil {
			log.Printf("Notification %s: failed to resolve push targets: %v", n.ID, err)
			return nil
		}
		if err := s.push.SendPush(ctx, tokens, "SladeshPro", n.Message, map[string]any{"channelId": n.ChannelID}); err != nil {
			log.Printf("Notification %s: push delivery failed: %v", n.ID, err)
		}
	}

	return nil
}

// List returns a channel's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, channelID string) ([]*notification.Notification, error) {
	docs, err := s.store.Query(ctx, notification.Collection, store.QueryOptions{
		Filters: []store.Filter{{Field: "channelId", Op: "==", Value: channelID}},
		OrderBy: "timestamp",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	result := make([]*notification.Notification, 0, len(docs))
	for i := range docs {
		result = append(result, notification.FromDocument(&docs[i]))
	}
	return result, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, channelID string) (int, error) {
	docs, err := s.store.Query(ctx, notification.Collection, store.QueryOptions{
		Filters: []store.Filter{
			{Field: "channelId", Op: "==", Value: channelID},
			{Field: "watched", Op: "==", Value: false},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return len(docs), nil
}

func (s *NotificationService) MarkAllWatched(ctx context.Context, channelID string) error {
	docs, err := s.store.Query(ctx, notification.Collection, store.QueryOptions{
		Filters: []store.Filter{
			{Field: "channelId", Op: "==", Value: channelID},
			{Field: "watched", Op: "==", Value: false},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to list unread notifications: %w", err)
	}

	for i := range docs {
		if err := s.store.Update(ctx, notification.Collection, docs[i].ID, map[string]any{"watched": true}); err != nil {
			return fmt.Errorf("failed to mark notification %s watched: %w", docs[i].ID, err)
		}
	}
	return nil
}

// ClearAll deletes every notification in the channel.
func (s *NotificationService) ClearAll(ctx context.Context, channelID string) error {
	docs, err := s.store.Query(ctx, notification.Collection, store.QueryOptions{
		Filters: []store.Filter{{Field: "channelId", Op: "==", Value: channelID}},
	})
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	for i := range docs {
		if err := s.store.Delete(ctx, notification.Collection, docs[i].ID); err != nil {
			return fmt.Errorf("failed to delete notification %s: %w", docs[i].ID, err)
		}
	}
	return nil
}

// pushTargets resolves the device tokens for a notification: the recipient's
// token when addressed, otherwise every channel member with a token.
func (s *NotificationService) pushTargets(ctx context.Context, n *notification.Notification) ([]string, error) {
	if n.RecipientUID != "" {
		doc, err := s.store.Get(ctx, user.Collection, n.RecipientUID)
		if err != nil {
			return nil, err
		}
		if token := store.AsString(doc.Fields["fcmToken"]); token != "" {
			return []string{token}, nil
		}
		return nil, nil
	}

	members, err := s.store.Query(ctx, channel.MembersPath(n.ChannelID), store.QueryOptions{})
	if err != nil {
		return nil, err
	}

	var tokens []string
	for i := range members {
		uid := store.AsString(members[i].Fields["userUID"])
		doc, err := s.store.Get(ctx, user.Collection, uid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if token := store.AsString(doc.Fields["fcmToken"]); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}
