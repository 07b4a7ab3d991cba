package queue

import "errors"

var (
	// ErrDuplicate is returned by NewItem when the same text is already queued.
	ErrDuplicate = errors.New("thought already queued")
	// ErrEmptyText is returned by NewItem for blank input.
	ErrEmptyText = errors.New("thought text is empty")
)
