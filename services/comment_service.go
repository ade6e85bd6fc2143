package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/comment"
)

// CommentService is the channel comment feed with a per-user daily cap.
type CommentService struct {
	store    store.DocumentStore
	channels *ChannelService
	now      func() time.Time
}

func NewCommentService(docStore store.DocumentStore, channels *ChannelService) *CommentService {
	return &CommentService{
		store:    docStore,
		channels: channels,
		now:      time.Now,
	}
}

// Add posts a comment unless the user already hit the daily limit in this
// channel. The limit counts comments since local midnight.
func (s *CommentService) Add(ctx context.Context, channelID, uid, userName, text string) (*comment.Comment, error) {
	if err := s.channels.RequireMember(ctx, channelID, uid); err != nil {
		return nil, err
	}

	startOfDay := s.startOfDay()
	todays, err := s.store.Query(ctx, comment.Collection, store.QueryOptions{
		Filters: []store.Filter{
			{Field: "channelId", Op: "==", Value: channelID},
			{Field: "userId", Op: "==", Value: uid},
			{Field: "timestamp", Op: ">=", Value: startOfDay},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check comment limit: %w", err)
	}
	if len(todays) >= comment.DailyLimit {
		return nil, ErrDailyCommentLimit
	}

	c := &comment.Comment{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		UserID:    uid,
		UserName:  userName,
		Text:      text,
		Timestamp: s.now().UTC(),
	}
	if err := s.store.Put(ctx, comment.Collection, c.ID, c.Fields()); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return c, nil
}

// List returns a channel's comments, newest first.
func (s *CommentService) List(ctx context.Context, channelID, uid string, limit int) ([]*comment.Comment, error) {
	if err := s.channels.RequireMember(ctx, channelID, uid); err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, comment.Collection, store.QueryOptions{
		Filters: []store.Filter{{Field: "channelId", Op: "==", Value: channelID}},
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	result := make([]*comment.Comment, 0, len(docs))
	for i := range docs {
		result = append(result, comment.FromDocument(&docs[i]))
	}
	return result, nil
}

func (s *CommentService) startOfDay() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
