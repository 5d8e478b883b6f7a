package repository

import "errors"

var (
	// ErrNotFound covers both missing rows and rows owned by another user.
	ErrNotFound       = errors.New("not found")
	ErrNoSubscription = errors.New("user has no subscription")
	// ErrStaleEvent means a newer billing event was already applied.
	ErrStaleEvent = errors.New("subscription changed by a newer event")
)
