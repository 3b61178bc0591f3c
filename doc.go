// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tilerender renders images tile by tile on a pool of workers and
// exposes live progress for a display to poll.
//
// # Overview
//
// An image is partitioned into square tiles (clipped at the right and bottom
// edges). A fixed set of worker goroutines pull tiles from a shared queue,
// compute each one with a [Filler], and commit it into a shared framebuffer.
// A [Controller] drives the session and is what a display talks to.
//
// # Quick Start
//
//	c := tilerender.NewController(tilerender.WithFiller(tilerender.GradientFiller{}))
//	if err := c.Start(image.Pt(512, 512), 32, 0); err != nil {
//	    log.Fatal(err)
//	}
//	<-c.Done()
//	img := c.Snapshot(nil)
//
// # Lifecycle
//
//	Idle -> Running -> {Completed, Cancelled} -> Idle
//
// Start is non-blocking. Cancel is cooperative: workers check the flag before
// each new tile, finish the tile they are on, and exit. The session becomes
// Cancelled once every worker has exited. A worker that panics inside a
// Filler exits with a [WorkerError]; the others keep going, and the session
// still reaches a terminal state.
//
// # Display
//
// Progress, State, Stats and the snapshot accessors never block and may be
// called from the UI goroutine every frame. SnapshotDirty copies only the
// tiles finished since the previous call. The preview sub-package provides a
// desktop window built on these accessors.
//
// # Logging
//
// Logging is silent by default; see [SetLogger].
package tilerender

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
