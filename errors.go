// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilerender

import (
	"errors"

	"github.com/gogpu/tilerender/internal/parallel"
)

var (
	// ErrInvalidDimensions is returned by Start when the image width, height
	// or tile size is not positive. Retrying with the same arguments fails again.
	ErrInvalidDimensions = parallel.ErrInvalidDimensions

	// ErrAlreadyRunning is returned by Start while a render is in progress.
	// Cancel the render or wait for it to finish, then start again.
	ErrAlreadyRunning = errors.New("tilerender: render already running")
)

// WorkerError reports a worker that failed while rendering a tile.
// It is returned, joined with any others, by Controller.Err and Controller.Wait.
type WorkerError = parallel.WorkerError
