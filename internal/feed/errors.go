package feed

import "errors"

var (
	// ErrInvalidWindow is returned for a window whose step is under one second.
	ErrInvalidWindow = errors.New("invalid feed window")

	ErrInvalidMode = errors.New("invalid feed mode")

	// ErrStale is returned by a rebuild that was superseded by a newer one.
	ErrStale = errors.New("stale chart generation")
)
