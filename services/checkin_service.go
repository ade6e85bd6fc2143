package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"sladeshProAPI/internal/geo"
	"sladeshProAPI/internal/leaderboard"
	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/types/notification"
	"sladeshProAPI/internal/types/user"
	"sladeshProAPI/utils"
)

// Milestone notifications fire when the competitive total lands exactly on
// one of these values. Equality, not threshold-crossing: a hypothetical
// batch increment jumping 9 to 11 would fire nothing.
var drinkMilestones = []int{10, 20, 30}

// CheckInService is the per-user check-in and drink ledger feeding the
// leaderboard. Counter updates are last-write-wins read-then-write, same as
// the mobile client's behavior against the document store.
type CheckInService struct {
	store         store.DocumentStore
	notifications *NotificationService
	channels      *ChannelService
}

func NewCheckInService(docStore store.DocumentStore, notifications *NotificationService, channels *ChannelService) *CheckInService {
	return &CheckInService{
		store:         docStore,
		notifications: notifications,
		channels:      channels,
	}
}

// CheckIn marks the user present and records their position. Only callable
// while not checked in. The channel notification is best-effort; the state
// update is the primary effect.
func (s *CheckInService) CheckIn(ctx context.Context, uid, channelID string, location *geo.Point) error {
	if err := s.channels.RequireMember(ctx, channelID, uid); err != nil {
		return err
	}

	doc, err := s.store.Get(ctx, user.Collection, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user not found: %w", err)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	u := user.FromDocument(doc)
	if u.IsCheckedIn {
		return ErrAlreadyCheckedIn
	}

	fields := map[string]any{"isCheckedIn": true}
	if location != nil {
		fields["lastLocation"] = map[string]any{
			"latitude":  location.Latitude,
			"longitude": location.Longitude,
		}
	}
	if err := s.store.Update(ctx, user.Collection, uid, fields); err != nil {
		return fmt.Errorf("failed to check in: %w", err)
	}

	username := u.Username
	if username == "" {
		username = "A user"
	}
	if err := s.notifications.Publish(ctx, &notification.Notification{
		ChannelID: channelID,
		Message:   fmt.Sprintf("%s just checked in!", username),
	}); err != nil {
		log.Printf("Check-in notification for %s failed: %v", uid, err)
	}

	return nil
}

// AddDrink increments the tally for one drink and returns the new
// competitive total. Drinks in the non-scoring category are tallied but do
// not move the total. A milestone notification failure never rolls back the
// counter.
func (s *CheckInService) AddDrink(ctx context.Context, uid, category, subtype string, location *geo.Point) (int, error) {
	doc, err := s.store.Get(ctx, user.Collection, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("user not found: %w", err)
		}
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	u := user.FromDocument(doc)

	key := utils.DrinkKey(category, subtype)
	u.Drinks[key]++
	newTotal := u.TotalDrinks
	if utils.IsScoringCategory(category) {
		newTotal++
	}

	fields := map[string]any{
		"drinks":      intMapToFields(u.Drinks),
		"totalDrinks": newTotal,
	}
	if location != nil {
		fields["lastLocation"] = map[string]any{
			"latitude":  location.Latitude,
			"longitude": location.Longitude,
		}
	}
	if err := s.store.Update(ctx, user.Collection, uid, fields); err != nil {
		return 0, fmt.Errorf("failed to update drinks: %w", err)
	}

	if isMilestone(newTotal) {
		channelID := s.userChannelID(ctx, uid)
		username := u.Username
		if username == "" {
			username = "User"
		}
		if err := s.notifications.Publish(ctx, &notification.Notification{
			ChannelID: channelID,
			Message:   fmt.Sprintf("%s reached %d total drinks!", username, newTotal),
		}); err != nil {
			log.Printf("Milestone notification for %s failed: %v", uid, err)
		}
	}

	return newTotal, nil
}

// SubtractDrink decrements one drink, floored at zero per key, mirroring the
// non-scoring exclusion on the way down.
func (s *CheckInService) SubtractDrink(ctx context.Context, uid, category, subtype string) (int, error) {
	doc, err := s.store.Get(ctx, user.Collection, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("user not found: %w", err)
		}
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	u := user.FromDocument(doc)

	key := utils.DrinkKey(category, subtype)
	if u.Drinks[key] == 0 {
		return u.TotalDrinks, nil
	}
	u.Drinks[key]--

	newTotal := u.TotalDrinks
	if utils.IsScoringCategory(category) && newTotal > 0 {
		newTotal--
	}

	fields := map[string]any{
		"drinks":      intMapToFields(u.Drinks),
		"totalDrinks": newTotal,
	}
	if err := s.store.Update(ctx, user.Collection, uid, fields); err != nil {
		return 0, fmt.Errorf("failed to update drinks: %w", err)
	}
	return newTotal, nil
}

// ResetAll clears the user's tallies. This is also the per-user unit the
// nightly maintenance job calls for every user.
func (s *CheckInService) ResetAll(ctx context.Context, uid string) error {
	fields := map[string]any{
		"drinks":      map[string]any{},
		"totalDrinks": 0,
	}
	if err := s.store.Update(ctx, user.Collection, uid, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user not found: %w", err)
		}
		return fmt.Errorf("failed to reset drinks: %w", err)
	}
	return nil
}

// ResetForNewDay is the nightly variant: tallies, check-in state and
// location all go back to their defaults.
func (s *CheckInService) ResetForNewDay(ctx context.Context, uid string) error {
	fields := map[string]any{
		"drinks":       map[string]any{},
		"totalDrinks":  0,
		"isCheckedIn":  false,
		"lastLocation": nil,
	}
	if err := s.store.Update(ctx, user.Collection, uid, fields); err != nil {
		return fmt.Errorf("failed to reset user %s: %w", uid, err)
	}
	return nil
}

// ChannelLeaderboard ranks the channel's checked-in members by competitive
// total. Only checked-in users participate; ties keep membership order.
func (s *CheckInService) ChannelLeaderboard(ctx context.Context, channelID, uid string) (*leaderboard.Leaderboard, error) {
	if err := s.channels.RequireMember(ctx, channelID, uid); err != nil {
		return nil, err
	}

	uids, err := s.channels.MemberUIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var entries []*leaderboard.Entry
	for _, memberUID := range uids {
		doc, err := s.store.Get(ctx, user.Collection, memberUID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get member %s: %w", memberUID, err)
		}
		u := user.FromDocument(doc)
		if !u.IsCheckedIn {
			continue
		}
		entries = append(entries, &leaderboard.Entry{
			UserID:      u.UID,
			Username:    u.Username,
			TotalDrinks: u.TotalDrinks,
			Drinks:      u.Drinks,
		})
	}

	position, total := leaderboard.Rank(entries, uid)
	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: position,
		TotalUsers:   total,
	}, nil
}

// userChannelID finds the first channel the user belongs to, for addressing
// milestone notifications. Best-effort: an empty id produces an unaddressed
// notification rather than an error.
func (s *CheckInService) userChannelID(ctx context.Context, uid string) string {
	channels, err := s.channels.ListForUser(ctx, uid)
	if err != nil || len(channels) == 0 {
		return ""
	}
	return channels[0].ID
}

func isMilestone(total int) bool {
	for _, m := range drinkMilestones {
		if total == m {
			return true
		}
	}
	return false
}

func intMapToFields(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
