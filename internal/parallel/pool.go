// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolBusy is returned by Run when the pool is already running a job.
var ErrPoolBusy = errors.New("parallel: worker pool is busy")

// FillFunc computes the content of one tile into dst.
// dst bounds equal t.Rect() and the image starts zeroed.
type FillFunc func(dst *image.RGBA, t Tile)

// Job describes one render executed by a WorkerPool.
type Job struct {
	// Queue supplies the tiles. Required.
	Queue *WorkQueue

	// Target receives every finished tile. Required.
	Target *Framebuffer

	// Buffers provides scratch images. A pool is created if nil.
	Buffers *TilePool

	// Fill computes tile content. Required.
	Fill FillFunc

	// Stop is checked before each new tile; returning true ends the worker.
	// Tiles already in progress are always finished.
	Stop func() bool

	// Done is called after a tile has been committed to Target.
	Done func(t Tile)
}

// WorkerError reports a worker that failed while rendering a tile.
// The worker exits; the tile it was rendering is not committed.
type WorkerError struct {
	// Worker is the worker id.
	Worker int

	// Tile is the tile being rendered when the failure happened.
	Tile Tile

	// Cause is the recovered panic value.
	Cause any
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("parallel: worker %d failed on tile %d %v: %v", e.Worker, e.Tile.Index, e.Tile.Rect(), e.Cause)
}

// Unwrap returns Cause when it is an error.
func (e *WorkerError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// WorkerPool runs a fixed number of workers over a WorkQueue.
//
// Each worker loops: check Stop, pop a tile, fill a scratch image, commit it
// to the framebuffer, report Done. Cancellation is cooperative at tile
// granularity; no worker is ever interrupted mid-tile.
//
// Thread safety: WorkerPool is safe for concurrent use, but runs one job at a time.
type WorkerPool struct {
	// workers is the number of worker goroutines per job.
	workers int

	// running indicates whether a job is in progress.
	running atomic.Bool

	// active is the number of workers that have not exited yet.
	active atomic.Int32
}

// NewWorkerPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &WorkerPool{workers: workers}
}

// Run executes job and blocks until every worker has exited, either because
// the queue is drained or because Stop returned true.
// The returned error joins the WorkerError of every failed worker.
func (p *WorkerPool) Run(job Job) error {
	if job.Queue == nil || job.Target == nil || job.Fill == nil {
		return errors.New("parallel: job needs a queue, a target and a fill function")
	}
	if !p.running.CompareAndSwap(false, true) {
		return ErrPoolBusy
	}
	defer p.running.Store(false)

	if job.Buffers == nil {
		job.Buffers = NewTilePool(0)
	}

	errs := make([]error, p.workers)
	var wg sync.WaitGroup

	p.active.Store(int32(p.workers)) //nolint:gosec // worker counts are small
	wg.Add(p.workers)
	for id := range p.workers {
		go func() {
			defer wg.Done()
			defer p.active.Add(-1)
			errs[id] = p.worker(id, &job)
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int, job *Job) error {
	for {
		if job.Stop != nil && job.Stop() {
			return nil
		}

		t, ok := job.Queue.Pop(id)
		if !ok {
			return nil
		}

		if err := p.renderTile(id, t, job); err != nil {
			return err
		}
	}
}

// renderTile fills and commits a single tile, turning a panic into a WorkerError.
func (p *WorkerPool) renderTile(id int, t Tile, job *Job) (err error) {
	dst := job.Buffers.Get(t)
	defer job.Buffers.Put(dst)

	defer func() {
		if r := recover(); r != nil {
			err = &WorkerError{Worker: id, Tile: t, Cause: r}
		}
	}()

	job.Fill(dst, t)
	job.Target.WriteTile(t, dst)

	if job.Done != nil {
		job.Done(t)
	}
	return nil
}

// Workers returns the number of workers per job.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Active returns the number of workers that have not exited the current job.
func (p *WorkerPool) Active() int {
	return int(p.active.Load())
}

// IsRunning returns true while a job is in progress.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
