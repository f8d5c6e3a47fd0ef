package bridge

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusRunning
	StatusGameOver
	StatusError
)

var (
	// ErrInvalidTransition is returned for a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("bridge: invalid status transition")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("bridge: session closed")
)

// String returns the status name used on the wire.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusGameOver:
		return "game-over"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// CanTransition reports whether the lifecycle allows moving from s to next.
//
//	loading   -> ready | error
//	ready     -> running | error
//	running   -> game-over | error
//	game-over -> running | error
//	error     -> loading
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusLoading:
		return next == StatusReady || next == StatusError
	case StatusReady:
		return next == StatusRunning || next == StatusError
	case StatusRunning:
		return next == StatusGameOver || next == StatusError
	case StatusGameOver:
		return next == StatusRunning || next == StatusError
	case StatusError:
		return next == StatusLoading
	default:
		return false
	}
}

func transitionError(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
