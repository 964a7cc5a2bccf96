package editor

import "errors"

var (
	// ErrAccessDenied reports that the acting user lacks the permission
	// level an operation needs on the target page.
	ErrAccessDenied = errors.New("access denied")

	// ErrBusy reports that the per-page writer lock could not be taken
	// within the configured wait. The operation had no effect and can be
	// retried as-is.
	ErrBusy = errors.New("page busy")

	// ErrInvalidContent wraps a content payload that does not match its
	// block type. Never retried without changing the payload.
	ErrInvalidContent = errors.New("invalid block content")
)
