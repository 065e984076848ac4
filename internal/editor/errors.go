package editor

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind   = errors.New("unknown entity kind")
	ErrUnknownAction = errors.New("unknown action")

	// ErrCancelled is returned when a destructive command was not confirmed.
	// No request is made in that case.
	ErrCancelled = errors.New("cancelled")

	ErrInvalidPayload = errors.New("invalid payload")
)

func unsupported(cmd Command) error {
	return fmt.Errorf("%w %q for %q", ErrUnknownAction, cmd.Action, cmd.Kind)
}
