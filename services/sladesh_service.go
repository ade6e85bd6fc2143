package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/notification"
	"sladeshProAPI/internal/types/sladesh"
	"sladeshProAPI/internal/types/user"
)

// SladeshService runs the challenge lifecycle: cooldown check, paired
// sender/receiver mirror writes, and completion. The mirrors live in two
// subcollections with no transaction across them; the receiver mirror is
// authoritative for the completed flag and the sent list resolves it by
// lookup at read time.
type SladeshService struct {
	store         store.DocumentStore
	notifications *NotificationService
	now           func() time.Time
}

func NewSladeshService(docStore store.DocumentStore, notifications *NotificationService) *SladeshService {
	return &SladeshService{
		store:         docStore,
		notifications: notifications,
		now:           time.Now,
	}
}

type SendSladeshRequest struct {
	SenderID     string `json:"-"`
	SenderName   string `json:"-"`
	ReceiverID   string `json:"receiverId"`
	ReceiverName string `json:"receiverName"`
	ChannelID    string `json:"channelId"`
	Message      string `json:"message"`
}

// StepResult reports the outcome of one write in the send sequence. The
// sequence is not transactional: a failed later step leaves earlier steps
// applied, and the report is how callers see that.
type StepResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type SendReport struct {
	SladeshID string       `json:"sladeshId"`
	Steps     []StepResult `json:"steps"`
}

func (r *SendReport) record(step string, err error) {
	res := StepResult{Step: step, OK: err == nil}
	if err != nil {
		res.Error = err.Error()
	}
	r.Steps = append(r.Steps, res)
}

// CanSend reports whether the sender's 12-hour cooldown has elapsed. Pure
// read, no side effect.
func (s *SladeshService) CanSend(ctx context.Context, senderID string) (bool, error) {
	doc, err := s.store.Get(ctx, user.Collection, senderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, fmt.Errorf("user not found: %w", err)
		}
		return false, fmt.Errorf("failed to get user: %w", err)
	}

	last, ok := store.AsTime(doc.Fields["lastSladeshTimestamp"])
	if !ok {
		return true, nil
	}
	return s.now().Sub(last) >= sladesh.Cooldown, nil
}

// Send creates the challenge. The cooldown is re-validated here because the
// caller's UI state may be stale; the check is still best-effort since two
// racing sends can both read the old timestamp. Writes happen in order:
// receiver mirror, sender mirror, notification, cooldown timestamp. Only a
// receiver-mirror failure aborts; later failures are recorded in the report
// and the challenge stands as partially applied.
func (s *SladeshService) Send(ctx context.Context, req *SendSladeshRequest) (*SendReport, error) {
	doc, err := s.store.Get(ctx, user.Collection, req.SenderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if last, ok := store.AsTime(doc.Fields["lastSladeshTimestamp"]); ok {
		if s.now().Sub(last) < sladesh.Cooldown {
			return nil, &sladesh.CooldownActiveError{NextAllowedAt: last.Add(sladesh.Cooldown)}
		}
	}

	sentAt := s.now().UTC()
	item := &sladesh.Sladesh{
		ID:        sladesh.NewID(sentAt, req.ReceiverID),
		FromUID:   req.SenderID,
		FromName:  req.SenderName,
		ToUID:     req.ReceiverID,
		ToName:    req.ReceiverName,
		ChannelID: req.ChannelID,
		Message:   req.Message,
		SentAt:    sentAt,
		Completed: false,
	}
	report := &SendReport{SladeshID: item.ID}

	// The receiver mirror is the authoritative record; without it there is
	// no challenge.
	if err := s.store.Put(ctx, sladesh.ReceivedPath(req.ReceiverID), item.ID, item.Fields()); err != nil {
		return nil, fmt.Errorf("failed to write receiver mirror: %w", err)
	}
	report.record("receiverMirror", nil)

	err = s.store.Put(ctx, sladesh.SentPath(req.SenderID), item.ID, item.Fields())
	report.record("senderMirror", err)
	if err != nil {
		log.Printf("Sladesh %s: sender mirror write failed: %v", item.ID, err)
	}

	err = s.notifications.Publish(ctx, &notification.Notification{
		ChannelID:    req.ChannelID,
		RecipientUID: req.ReceiverID,
		Message:      fmt.Sprintf("%s sent you a Sladesh!", req.SenderName),
		Timestamp:    sentAt,
	})
	report.record("notification", err)
	if err != nil {
		log.Printf("Sladesh %s: notification write failed: %v", item.ID, err)
	}

	err = s.store.Update(ctx, user.Collection, req.SenderID, map[string]any{"lastSladeshTimestamp": sentAt})
	report.record("cooldownTimestamp", err)
	if err != nil {
		log.Printf("Sladesh %s: cooldown timestamp update failed: %v", item.ID, err)
	}

	return report, nil
}

// Complete marks both mirrors completed. Missing either mirror is fatal for
// the operation; the caller must see it rather than a silent success.
func (s *SladeshService) Complete(ctx context.Context, sladeshID, receiverID, senderID string) error {
	if _, err := s.store.Get(ctx, sladesh.ReceivedPath(receiverID), sladeshID); err != nil {
		return fmt.Errorf("receiver mirror %s: %w", sladeshID, err)
	}
	if _, err := s.store.Get(ctx, sladesh.SentPath(senderID), sladeshID); err != nil {
		return fmt.Errorf("sender mirror %s: %w", sladeshID, err)
	}

	if err := s.store.Update(ctx, sladesh.ReceivedPath(receiverID), sladeshID, map[string]any{"completed": true}); err != nil {
		return fmt.Errorf("failed to complete receiver mirror: %w", err)
	}
	if err := s.store.Update(ctx, sladesh.SentPath(senderID), sladeshID, map[string]any{"completed": true}); err != nil {
		return fmt.Errorf("failed to complete sender mirror: %w", err)
	}
	return nil
}

// ListReceived returns the user's received challenges in a channel,
// chronological by send time.
func (s *SladeshService) ListReceived(ctx context.Context, receiverID, channelID string) ([]*sladesh.Sladesh, error) {
	docs, err := s.store.Query(ctx, sladesh.ReceivedPath(receiverID), store.QueryOptions{
		Filters: []store.Filter{{Field: "channelId", Op: "==", Value: channelID}},
		OrderBy: "sentAt",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list received sladesh: %w", err)
	}

	result := make([]*sladesh.Sladesh, 0, len(docs))
	for i := range docs {
		result = append(result, sladesh.FromDocument(&docs[i]))
	}
	return result, nil
}

// ListSent returns the user's sent challenges in a channel. The completed
// flag is resolved by looking up the paired receiver mirror, not trusted
// from the sent copy, so the two can never diverge silently. A missing
// receiver mirror reads as not completed.
func (s *SladeshService) ListSent(ctx context.Context, senderID, channelID string) ([]*sladesh.Sladesh, error) {
	docs, err := s.store.Query(ctx, sladesh.SentPath(senderID), store.QueryOptions{
		Filters: []store.Filter{{Field: "channelId", Op: "==", Value: channelID}},
		OrderBy: "sentAt",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sent sladesh: %w", err)
	}

	result := make([]*sladesh.Sladesh, 0, len(docs))
	for i := range docs {
		item := sladesh.FromDocument(&docs[i])
		item.Completed = false

		mirror, err := s.store.Get(ctx, sladesh.ReceivedPath(item.ToUID), item.ID)
		if err == nil {
			item.Completed = store.AsBool(mirror.Fields["completed"])
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to resolve completed flag for %s: %w", item.ID, err)
		}
		result = append(result, item)
	}
	return result, nil
}

// HasUncompleted returns the oldest pending received challenge, or nil. The
// client calls this once at session start and blocks navigation until the
// challenge is completed.
func (s *SladeshService) HasUncompleted(ctx context.Context, receiverID string) (*sladesh.Sladesh, error) {
	docs, err := s.store.Query(ctx, sladesh.ReceivedPath(receiverID), store.QueryOptions{
		Filters: []store.Filter{{Field: "completed", Op: "==", Value: false}},
		OrderBy: "sentAt",
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query uncompleted sladesh: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return sladesh.FromDocument(&docs[0]), nil
}
