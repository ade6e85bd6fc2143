package services

import "errors"

var (
	// ErrNotChannelMember is surfaced when a caller touches a channel they
	// have not joined. Not retryable.
	ErrNotChannelMember = errors.New("user is not a member of this channel")

	// ErrAlreadyCheckedIn rejects a check-in while one is already active;
	// check-in is only callable from the not-checked-in state.
	ErrAlreadyCheckedIn = errors.New("user is already checked in")

	// ErrDailyCommentLimit is returned once a user has posted the maximum
	// number of comments in a channel for the current day.
	ErrDailyCommentLimit = errors.New("daily comment limit reached")
)
