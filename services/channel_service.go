package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"sladeshProAPI/internal/geo"
	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/channel"
	"sladeshProAPI/internal/types/user"
)

// ChannelService owns channels and the membership capability. Membership is
// stored as a members subcollection keyed by uid; everything else goes
// through IsMember/AddMember so the storage shape could change without
// touching the other services.
type ChannelService struct {
	store store.DocumentStore
}

func NewChannelService(docStore store.DocumentStore) *ChannelService {
	return &ChannelService{store: docStore}
}

func (s *ChannelService) IsMember(ctx context.Context, channelID, uid string) (bool, error) {
	_, err := s.store.Get(ctx, channel.MembersPath(channelID), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

func (s *ChannelService) AddMember(ctx context.Context, channelID, uid string) error {
	fields := map[string]any{"userUID": uid}
	if err := s.store.Put(ctx, channel.MembersPath(channelID), uid, fields); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RequireMember is the permission gate for channel-scoped operations.
func (s *ChannelService) RequireMember(ctx context.Context, channelID, uid string) error {
	ok, err := s.IsMember(ctx, channelID, uid)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotChannelMember
	}
	return nil
}

// ListForUser returns the channels the user belongs to, joining the default
// open channel lazily on first access. The default channel always sorts
// first.
func (s *ChannelService) ListForUser(ctx context.Context, uid string) ([]*channel.Channel, error) {
	if err := s.ensureDefaultChannel(ctx); err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, channel.Collection, store.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	var memberOf []*channel.Channel
	var defaultChannel *channel.Channel
	for i := range docs {
		ch := channel.FromDocument(&docs[i])
		if ch.ID == channel.DefaultChannelID {
			defaultChannel = ch
		}
		ok, err := s.IsMember(ctx, ch.ID, uid)
		if err != nil {
			return nil, err
		}
		if ok && ch.ID != channel.DefaultChannelID {
			memberOf = append(memberOf, ch)
		}
	}

	// Everyone belongs to the open channel; join silently if missing.
	if defaultChannel != nil {
		ok, err := s.IsMember(ctx, channel.DefaultChannelID, uid)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := s.AddMember(ctx, channel.DefaultChannelID, uid); err != nil {
				return nil, err
			}
		}
		memberOf = append([]*channel.Channel{defaultChannel}, memberOf...)
	}

	return memberOf, nil
}

// Create makes a new channel and joins the creator.
func (s *ChannelService) Create(ctx context.Context, uid string, req *channel.CreateChannelRequest) (*channel.Channel, error) {
	id := uuid.New().String()
	fields := map[string]any{
		"name":       req.Name,
		"accessCode": req.AccessCode,
	}
	if err := s.store.Put(ctx, channel.Collection, id, fields); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	if err := s.AddMember(ctx, id, uid); err != nil {
		return nil, err
	}
	return &channel.Channel{ID: id, Name: req.Name, AccessCode: req.AccessCode}, nil
}

// JoinByAccessCode adds the user to the channel matching the access code.
func (s *ChannelService) JoinByAccessCode(ctx context.Context, uid, accessCode string) (*channel.Channel, error) {
	docs, err := s.store.Query(ctx, channel.Collection, store.QueryOptions{
		Filters: []store.Filter{{Field: "accessCode", Op: "==", Value: accessCode}},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up access code: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("channel not found: %w", store.ErrNotFound)
	}

	ch := channel.FromDocument(&docs[0])
	if err := s.AddMember(ctx, ch.ID, uid); err != nil {
		return nil, err
	}
	return ch, nil
}

// MemberUIDs returns the uids of every member of a channel.
func (s *ChannelService) MemberUIDs(ctx context.Context, channelID string) ([]string, error) {
	docs, err := s.store.Query(ctx, channel.MembersPath(channelID), store.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	uids := make([]string, 0, len(docs))
	for i := range docs {
		uids = append(uids, store.AsString(docs[i].Fields["userUID"]))
	}
	return uids, nil
}

// CheckedInMemberLocations collects last-known positions of checked-in
// members for the map view. Members without a stored location are skipped.
func (s *ChannelService) CheckedInMemberLocations(ctx context.Context, channelID string) ([]geo.Point, error) {
	uids, err := s.MemberUIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var points []geo.Point
	for _, uid := range uids {
		doc, err := s.store.Get(ctx, user.Collection, uid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get member %s: %w", uid, err)
		}
		u := user.FromDocument(doc)
		if !u.IsCheckedIn || u.LastLocation == nil {
			continue
		}
		points = append(points, geo.Point{
			UserID:    u.UID,
			Username:  u.Username,
			Latitude:  u.LastLocation.Latitude,
			Longitude: u.LastLocation.Longitude,
		})
	}
	return points, nil
}

func (s *ChannelService) ensureDefaultChannel(ctx context.Context) error {
	_, err := s.store.Get(ctx, channel.Collection, channel.DefaultChannelID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to get default channel: %w", err)
	}

	log.Printf("Creating default channel %s", channel.DefaultChannelID)
	fields := map[string]any{
		"name":       channel.DefaultChannelName,
		"accessCode": "",
	}
	if err := s.store.Put(ctx, channel.Collection, channel.DefaultChannelID, fields); err != nil {
		return fmt.Errorf("failed to create default channel: %w", err)
	}
	return nil
}
