// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilerender

// State is the lifecycle state of a render session.
//
//	Idle -> Running -> {Completed, Cancelled} -> Idle
type State int32

const (
	// StateIdle means no render has been started, or the last one was reset.
	StateIdle State = iota

	// StateRunning means workers are rendering tiles.
	StateRunning

	// StateCompleted means every tile was rendered.
	StateCompleted

	// StateCancelled means the render stopped before every tile was rendered,
	// because of Cancel or because workers failed.
	StateCancelled
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Completed or Cancelled.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}
