// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilerender

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/tilerender/internal/parallel"
)

// Stats is a point-in-time view of a render session.
type Stats struct {
	State     State
	Completed int
	Total     int

	// Workers is the number of workers started for the session.
	Workers int

	// Active is the number of workers that have not exited yet.
	Active int

	// Elapsed is the time since Start, frozen when the session ends.
	Elapsed time.Duration
}

// Progress returns Completed/Total, or 0 when Total is 0.
func (s Stats) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// session holds the state of one render. Workers and the display only reach
// it through the closures and accessors of Controller.
type session struct {
	grid  *parallel.TileGrid
	fb    *parallel.Framebuffer
	dirty *parallel.DirtyRegion
	pool  *parallel.WorkerPool

	completed atomic.Int64
	cancelled atomic.Bool
	state     atomic.Int32

	started time.Time
	elapsed atomic.Int64

	// err is written once before state becomes terminal.
	err  error
	done chan struct{}
}

func (s *session) State() State {
	return State(s.state.Load())
}

func (s *session) finish(err error) {
	s.err = err
	s.elapsed.Store(int64(time.Since(s.started)))

	final := StateCompleted
	if s.completed.Load() < int64(s.grid.TileCount()) {
		final = StateCancelled
	}
	s.state.Store(int32(final))

	Logger().Info("render finished",
		"state", final,
		"completed", s.completed.Load(), "tiles", s.grid.TileCount(),
		"elapsed", time.Duration(s.elapsed.Load()))
	close(s.done)
}

// closedChan is returned by Done when there is no session.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Controller orchestrates render sessions.
//
// Start launches the workers and returns immediately; progress and state are
// read lock-free from any goroutine, typically once per presented frame.
//
//	c := tilerender.NewController()
//	if err := c.Start(image.Pt(512, 512), 32, runtime.NumCPU()); err != nil {
//	    return err
//	}
//	for c.State() == tilerender.StateRunning {
//	    fmt.Printf("%.0f%%\n", c.Progress()*100)
//	    time.Sleep(100 * time.Millisecond)
//	}
//
// Thread safety: all methods are safe for concurrent use. SnapshotDirty
// consumes dirty marks, so it should have a single caller.
type Controller struct {
	// mu serializes Start and Reset.
	mu   sync.Mutex
	sess atomic.Pointer[session]

	filler Filler
}

// NewController creates an idle controller.
func NewController(opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller{filler: o.filler}
}

// Start partitions a size.X x size.Y image into tileSize tiles and renders
// them on workers goroutines (GOMAXPROCS if workers <= 0, capped at the tile
// count). It returns without waiting for the render.
//
// Start returns ErrAlreadyRunning while a session is running and
// ErrInvalidDimensions for non-positive sizes. Starting after a session has
// completed or been cancelled discards that session.
func (c *Controller) Start(size image.Point, tileSize, workers int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.sess.Load(); s != nil && s.State() == StateRunning {
		return ErrAlreadyRunning
	}

	grid, err := parallel.NewTileGrid(size.X, size.Y, tileSize)
	if err != nil {
		return fmt.Errorf("tilerender: start: %w", err)
	}
	fb, err := parallel.NewFramebuffer(size.X, size.Y)
	if err != nil {
		return fmt.Errorf("tilerender: start: %w", err)
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, grid.TileCount())

	s := &session{
		grid:    grid,
		fb:      fb,
		dirty:   parallel.NewDirtyRegion(grid.TileCount()),
		pool:    parallel.NewWorkerPool(workers),
		started: time.Now(),
		done:    make(chan struct{}),
	}
	// The display must repaint everything, including tiles not rendered yet.
	s.dirty.MarkAll()
	s.state.Store(int32(StateRunning))
	c.sess.Store(s)

	Logger().Info("render started",
		"width", size.X, "height", size.Y,
		"tile_size", tileSize, "tiles", grid.TileCount(), "workers", workers)

	go c.run(s, c.filler)
	return nil
}

// run executes the session on its pool and records the outcome.
func (c *Controller) run(s *session, filler Filler) {
	size := image.Pt(s.grid.Width(), s.grid.Height())

	err := s.pool.Run(parallel.Job{
		Queue:   parallel.NewWorkQueue(s.grid.Tiles(), s.pool.Workers()),
		Target:  s.fb,
		Buffers: parallel.NewTilePool(s.grid.TileSize()),
		Fill: func(dst *image.RGBA, t Tile) {
			filler.Fill(dst, t, size)
		},
		Stop: s.cancelled.Load,
		Done: func(t Tile) {
			// Mark before counting so a finished session has every tile marked.
			s.dirty.Mark(t.Index)
			s.completed.Add(1)
		},
	})
	if err != nil {
		Logger().Warn("render workers failed", "err", err)
	}

	s.finish(err)
}

// Cancel asks the running session to stop. Workers finish the tile they are
// on and take no new ones; State becomes StateCancelled once they have all
// exited. Cancel returns immediately and is a no-op unless a session is running.
func (c *Controller) Cancel() {
	s := c.sess.Load()
	if s == nil || s.State() != StateRunning {
		return
	}
	if s.cancelled.CompareAndSwap(false, true) {
		Logger().Info("render cancel requested", "completed", s.completed.Load(), "tiles", s.grid.TileCount())
	}
}

// Reset discards a completed or cancelled session, returning to StateIdle.
// It is a no-op while a session is running or when already idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.sess.Load(); s != nil && s.State().Terminal() {
		c.sess.Store(nil)
	}
}

// State returns the state of the current session.
func (c *Controller) State() State {
	s := c.sess.Load()
	if s == nil {
		return StateIdle
	}
	return s.State()
}

// Progress returns the fraction of tiles completed, in [0, 1].
// It is 0 when there is no session.
func (c *Controller) Progress() float64 {
	return c.Stats().Progress()
}

// Stats returns counters for the current session.
func (c *Controller) Stats() Stats {
	s := c.sess.Load()
	if s == nil {
		return Stats{State: StateIdle}
	}

	st := Stats{
		State:     s.State(),
		Completed: int(s.completed.Load()),
		Total:     s.grid.TileCount(),
		Workers:   s.pool.Workers(),
		Active:    s.pool.Active(),
	}
	if st.State.Terminal() {
		st.Elapsed = time.Duration(s.elapsed.Load())
	} else {
		st.Elapsed = time.Since(s.started)
	}
	return st
}

// Size returns the image size of the current session, or the zero point.
func (c *Controller) Size() image.Point {
	s := c.sess.Load()
	if s == nil {
		return image.Point{}
	}
	return image.Pt(s.grid.Width(), s.grid.Height())
}

// Snapshot copies the current framebuffer into dst, reallocating it when its
// bounds do not match. Returns dst unchanged when there is no session.
func (c *Controller) Snapshot(dst *image.RGBA) *image.RGBA {
	s := c.sess.Load()
	if s == nil {
		return dst
	}
	return s.fb.Snapshot(dst)
}

// SnapshotDirty copies into dst only the tiles committed since the previous
// call and returns their bounds. When dst is nil or has different bounds, a
// full snapshot is allocated and the whole image is reported.
// A new session reports every tile once, so stale pixels are overwritten.
func (c *Controller) SnapshotDirty(dst *image.RGBA) (*image.RGBA, []image.Rectangle) {
	s := c.sess.Load()
	if s == nil {
		return dst, nil
	}

	bounds := s.fb.Bounds()
	if dst == nil || dst.Rect != bounds {
		// Clear first: marks that land after this are still covered by the copy.
		s.dirty.Clear()
		return s.fb.Snapshot(nil), []image.Rectangle{bounds}
	}

	indices := s.dirty.GetAndClear()
	if len(indices) == 0 {
		return dst, nil
	}

	rects := make([]image.Rectangle, 0, len(indices))
	for _, idx := range indices {
		t, ok := s.grid.TileByIndex(idx)
		if !ok {
			continue
		}
		s.fb.CopyTo(dst, t.Rect())
		rects = append(rects, t.Rect())
	}
	return dst, rects
}

// Done returns a channel closed when the current session reaches a terminal
// state. With no session the channel is already closed.
func (c *Controller) Done() <-chan struct{} {
	s := c.sess.Load()
	if s == nil {
		return closedChan
	}
	return s.done
}

// Wait blocks until the current session ends or ctx is done.
// It returns the session's worker errors, or ctx.Err().
func (c *Controller) Wait(ctx context.Context) error {
	s := c.sess.Load()
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the worker failures of a finished session, joined.
// It is nil while the session is running or when every worker exited cleanly.
func (c *Controller) Err() error {
	s := c.sess.Load()
	if s == nil || !s.State().Terminal() {
		return nil
	}
	return s.err
}
