package services

import (
	"context"
	"errors"
	"fmt"

	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/user"
)

type UserService struct {
	store store.DocumentStore
}

func NewUserService(docStore store.DocumentStore) *UserService {
	return &UserService{store: docStore}
}

// GetUser fetches a user document by uid.
func (s *UserService) GetUser(ctx context.Context, uid string) (*user.User, error) {
	doc, err := s.store.Get(ctx, user.Collection, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.FromDocument(doc), nil
}

// EnsureUser returns the user's profile, creating a default document on
// first access. The auth layer owns identity; the document only carries app
// state.
func (s *UserService) EnsureUser(ctx context.Context, uid, username string) (*user.User, error) {
	doc, err := s.store.Get(ctx, user.Collection, uid)
	if err == nil {
		return user.FromDocument(doc), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	fields := user.DefaultFields(username)
	if err := s.store.Put(ctx, user.Collection, uid, fields); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user.FromDocument(&store.Document{ID: uid, Fields: fields}), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, uid string, req *user.UpdateProfileRequest) (*user.User, error) {
	fields := map[string]any{}
	if req.Username != "" {
		fields["username"] = req.Username
	}
	if req.ProfileImageURL != "" {
		fields["profileImageUrl"] = req.ProfileImageURL
	}
	if req.ProfileBackgroundColor != "" {
		fields["profileBackgroundColor"] = req.ProfileBackgroundColor
	}
	if req.HasCompletedOnboarding != nil {
		fields["hasCompletedOnboarding"] = *req.HasCompletedOnboarding
	}

	if len(fields) > 0 {
		if err := s.store.Update(ctx, user.Collection, uid, fields); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("user not found: %w", err)
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return s.GetUser(ctx, uid)
}

// RegisterDeviceToken stores the user's FCM token for push delivery.
func (s *UserService) RegisterDeviceToken(ctx context.Context, uid, token string) error {
	if err := s.store.Update(ctx, user.Collection, uid, map[string]any{"fcmToken": token}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user not found: %w", err)
		}
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, uid string) error {
	if err := s.store.Delete(ctx, user.Collection, uid); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
