// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilerender

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitTerminal polls State like a display would, failing if the session
// never leaves Running.
func waitTerminal(t *testing.T, c *Controller) State {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if st := c.State(); st != StateRunning {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("session stuck in Running")
	return StateRunning
}

// countingFiller records how many times each tile is filled.
type countingFiller struct {
	mu     sync.Mutex
	counts map[int]int
	inner  Filler
}

func newCountingFiller(inner Filler) *countingFiller {
	return &countingFiller{counts: make(map[int]int), inner: inner}
}

func (f *countingFiller) Fill(dst *image.RGBA, tile Tile, size image.Point) {
	f.mu.Lock()
	f.counts[tile.Index]++
	f.mu.Unlock()
	f.inner.Fill(dst, tile, size)
}

// blockingFiller holds every tile until release is closed.
type blockingFiller struct {
	started chan struct{}
	once    sync.Once
	release chan struct{}
}

func newBlockingFiller() *blockingFiller {
	return &blockingFiller{started: make(chan struct{}), release: make(chan struct{})}
}

func (f *blockingFiller) Fill(dst *image.RGBA, tile Tile, size image.Point) {
	f.once.Do(func() { close(f.started) })
	<-f.release
	SolidFiller{}.Fill(dst, tile, size)
}

func TestController_Idle(t *testing.T) {
	c := NewController()

	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.Progress())
	assert.Equal(t, image.Point{}, c.Size())
	assert.Nil(t, c.Snapshot(nil))
	assert.NoError(t, c.Wait(context.Background()))
	assert.NoError(t, c.Err())

	dst, rects := c.SnapshotDirty(nil)
	assert.Nil(t, dst)
	assert.Empty(t, rects)

	select {
	case <-c.Done():
	default:
		t.Error("Done() should be closed when idle")
	}

	// No-ops when idle.
	c.Cancel()
	c.Reset()
	assert.Equal(t, StateIdle, c.State())
}

func TestController_Scenario100x100(t *testing.T) {
	f := newCountingFiller(GradientFiller{})
	c := NewController(WithFiller(f))

	require.NoError(t, c.Start(image.Pt(100, 100), 32, 4))

	assert.Equal(t, StateCompleted, waitTerminal(t, c))
	assert.Equal(t, 1.0, c.Progress())

	st := c.Stats()
	assert.Equal(t, 16, st.Total)
	assert.Equal(t, 16, st.Completed)
	assert.Equal(t, 4, st.Workers)
	assert.Equal(t, image.Pt(100, 100), c.Size())
	assert.NoError(t, c.Err())

	// Every tile filled exactly once.
	require.Len(t, f.counts, 16)
	for idx, n := range f.counts {
		assert.Equal(t, 1, n, "tile %d", idx)
	}

	// Every pixel was written (all built-in fillers are opaque).
	img := c.Snapshot(nil)
	for i := 3; i < len(img.Pix); i += 4 {
		require.Equal(t, byte(0xFF), img.Pix[i], "pixel %d not written", i/4)
	}
}

func TestController_WorkerCountDoesNotChangeImage(t *testing.T) {
	fillers := map[string]Filler{
		"solid":    SolidFiller{Seed: 7},
		"checker":  CheckerFiller{Cell: 5},
		"gradient": GradientFiller{},
	}

	for name, f := range fillers {
		t.Run(name, func(t *testing.T) {
			render := func(workers int) []byte {
				c := NewController(WithFiller(f))
				require.NoError(t, c.Start(image.Pt(173, 91), 16, workers))
				require.NoError(t, c.Wait(context.Background()))
				require.Equal(t, StateCompleted, c.State())
				return c.Snapshot(nil).Pix
			}
			assert.Equal(t, render(1), render(8))
		})
	}
}

func TestController_InvalidDimensions(t *testing.T) {
	c := NewController()

	for _, tc := range []struct {
		size     image.Point
		tileSize int
	}{
		{image.Pt(0, 10), 4},
		{image.Pt(10, -1), 4},
		{image.Pt(10, 10), 0},
	} {
		err := c.Start(tc.size, tc.tileSize, 2)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
		assert.Equal(t, StateIdle, c.State())
	}
}

func TestController_AlreadyRunning(t *testing.T) {
	f := newBlockingFiller()
	c := NewController(WithFiller(f))

	require.NoError(t, c.Start(image.Pt(64, 64), 16, 2))
	<-f.started

	assert.ErrorIs(t, c.Start(image.Pt(64, 64), 16, 2), ErrAlreadyRunning)
	assert.Equal(t, StateRunning, c.State())

	// Reset does nothing while running.
	c.Reset()
	assert.Equal(t, StateRunning, c.State())

	close(f.release)
	assert.Equal(t, StateCompleted, waitTerminal(t, c))

	// A finished session can be replaced.
	require.NoError(t, c.Start(image.Pt(32, 32), 16, 2))
	waitTerminal(t, c)
	assert.Equal(t, image.Pt(32, 32), c.Size())
}

func TestController_CancelImmediately(t *testing.T) {
	c := NewController(WithFiller(WithLoad(SolidFiller{}, 5*time.Millisecond)))

	require.NoError(t, c.Start(image.Pt(512, 512), 16, 4))
	c.Cancel()

	assert.Equal(t, StateCancelled, waitTerminal(t, c))
	st := c.Stats()
	assert.Less(t, st.Completed, st.Total)
	assert.Less(t, c.Progress(), 1.0)
	assert.NoError(t, c.Err())
	assert.Zero(t, st.Active)
}

func TestController_CancelFinishesInFlightTiles(t *testing.T) {
	f := newBlockingFiller()
	c := NewController(WithFiller(f))

	require.NoError(t, c.Start(image.Pt(64, 64), 8, 2))
	<-f.started

	c.Cancel()
	// Still running until the in-flight tiles are committed.
	assert.Equal(t, StateRunning, c.State())

	close(f.release)
	assert.Equal(t, StateCancelled, waitTerminal(t, c))

	st := c.Stats()
	assert.GreaterOrEqual(t, st.Completed, 1)
	assert.LessOrEqual(t, st.Completed, 2)
}

func TestController_CancelIsIdempotent(t *testing.T) {
	c := NewController()
	require.NoError(t, c.Start(image.Pt(16, 16), 16, 1))
	require.Equal(t, StateCompleted, waitTerminal(t, c))

	before := c.Stats()
	c.Cancel()
	c.Cancel()
	after := c.Stats()

	assert.Equal(t, StateCompleted, after.State)
	assert.Equal(t, before.Completed, after.Completed)
	assert.Equal(t, before.Elapsed, after.Elapsed)

	cc := NewController(WithFiller(WithLoad(SolidFiller{}, 5*time.Millisecond)))
	require.NoError(t, cc.Start(image.Pt(256, 256), 8, 2))
	cc.Cancel()
	require.Equal(t, StateCancelled, waitTerminal(t, cc))
	cc.Cancel()
	assert.Equal(t, StateCancelled, cc.State())
}

func TestController_Reset(t *testing.T) {
	c := NewController()
	require.NoError(t, c.Start(image.Pt(20, 20), 8, 2))
	waitTerminal(t, c)

	c.Reset()
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.Progress())
	assert.Equal(t, image.Point{}, c.Size())
}

func TestController_WorkerFailure(t *testing.T) {
	boom := errors.New("boom")
	f := FillerFunc(func(dst *image.RGBA, tile Tile, size image.Point) {
		if tile.Index == 3 {
			panic(boom)
		}
		SolidFiller{}.Fill(dst, tile, size)
	})
	c := NewController(WithFiller(f))

	require.NoError(t, c.Start(image.Pt(64, 64), 16, 4))
	err := c.Wait(context.Background())

	assert.ErrorIs(t, err, boom)
	var werr *WorkerError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, 3, werr.Tile.Index)

	// One tile lost: the session ends as a partial render, not Running.
	assert.Equal(t, StateCancelled, c.State())
	assert.Equal(t, 15, c.Stats().Completed)
	assert.ErrorIs(t, c.Err(), boom)
}

func TestController_AllWorkersFail(t *testing.T) {
	c := NewController(WithFiller(FillerFunc(func(*image.RGBA, Tile, image.Point) {
		panic("no")
	})))

	require.NoError(t, c.Start(image.Pt(64, 64), 8, 3))
	assert.Equal(t, StateCancelled, waitTerminal(t, c))
	assert.Zero(t, c.Stats().Completed)
	assert.Error(t, c.Err())
}

func TestController_WorkersCappedAtTiles(t *testing.T) {
	c := NewController()
	require.NoError(t, c.Start(image.Pt(10, 10), 32, 16))
	waitTerminal(t, c)
	assert.Equal(t, 1, c.Stats().Workers)
}

func TestController_WaitContext(t *testing.T) {
	f := newBlockingFiller()
	c := NewController(WithFiller(f))
	require.NoError(t, c.Start(image.Pt(16, 16), 16, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)

	close(f.release)
	assert.NoError(t, c.Wait(context.Background()))
	<-c.Done()
}

func TestController_SnapshotDirty(t *testing.T) {
	c := NewController(WithFiller(CheckerFiller{}))
	require.NoError(t, c.Start(image.Pt(64, 48), 16, 2))
	require.NoError(t, c.Wait(context.Background()))

	// First call allocates and reports the whole image.
	dst, rects := c.SnapshotDirty(nil)
	require.NotNil(t, dst)
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 64, 48)}, rects)
	assert.Equal(t, c.Snapshot(nil).Pix, dst.Pix)

	// Nothing changed since.
	same, rects := c.SnapshotDirty(dst)
	assert.Same(t, dst, same)
	assert.Empty(t, rects)

	// A new session of the same size reports every tile once.
	require.NoError(t, c.Start(image.Pt(64, 48), 16, 2))
	require.NoError(t, c.Wait(context.Background()))
	_, rects = c.SnapshotDirty(dst)
	assert.Len(t, rects, 12)
	_, rects = c.SnapshotDirty(dst)
	assert.Empty(t, rects)
}

// TestController_LiveSnapshot polls like a display while rendering and checks
// that the mirror converges to the final image.
func TestController_LiveSnapshot(t *testing.T) {
	c := NewController(WithFiller(WithLoad(GradientFiller{}, 2*time.Millisecond)))
	require.NoError(t, c.Start(image.Pt(96, 96), 16, 3))

	var (
		mirror *image.RGBA
		seen   atomic.Int64
	)
	for c.State() == StateRunning {
		var rects []image.Rectangle
		mirror, rects = c.SnapshotDirty(mirror)
		seen.Add(int64(len(rects)))
		assert.LessOrEqual(t, c.Progress(), 1.0)
		time.Sleep(time.Millisecond)
	}
	mirror, rects := c.SnapshotDirty(mirror)
	seen.Add(int64(len(rects)))

	require.Equal(t, StateCompleted, c.State())
	assert.Equal(t, c.Snapshot(nil).Pix, mirror.Pix)
	assert.Positive(t, seen.Load())
}

func TestStats_Progress(t *testing.T) {
	assert.Zero(t, Stats{}.Progress())
	assert.Equal(t, 0.25, Stats{Completed: 1, Total: 4}.Progress())
}
