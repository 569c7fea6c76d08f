package store

import "errors"

var (
	// ErrUserExists is returned when creating a user whose email is taken.
	ErrUserExists = errors.New("store: user already exists")

	// ErrUserNotFound is returned by updates that target a missing user.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("store: closed")
)
