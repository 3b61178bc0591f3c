// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel provides the tile-based parallel rendering core of tilerender.
//
// The image is divided into square tiles of a configurable size that are
// rendered independently by a fixed pool of workers. Key pieces:
//
//   - TileGrid partitions an image into row-major tiles with clipped edges
//   - WorkQueue hands each tile out exactly once, with work stealing
//   - WorkerPool runs the workers and stops cooperatively between tiles
//   - Framebuffer is the shared pixel arena, one atomic word per pixel
//   - TilePool reuses per-tile scratch images via sync.Pool
//   - DirtyRegion tracks committed tiles for incremental presentation
//
// Thread safety: TileGrid and Tile are immutable after construction.
// WorkQueue, Framebuffer, TilePool and DirtyRegion are safe for concurrent use.
package parallel

import "image"

// BytesPerPixel is the size of one RGBA sample.
const BytesPerPixel = 4

// Tile represents a rectangular region of the image rendered as one unit of work.
//
// Tiles are plain values and never change after the grid creates them.
// Edge tiles may be smaller than the grid's tile size when the image is not
// evenly divisible.
type Tile struct {
	// Index is the row-major position of the tile in its grid.
	Index int

	// X is the left edge of the tile in image pixels.
	X int

	// Y is the top edge of the tile in image pixels.
	Y int

	// Width is the actual width in pixels.
	Width int

	// Height is the actual height in pixels.
	Height int
}

// Rect returns the tile bounds in image space.
func (t Tile) Rect() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

// Stride returns the row stride in bytes of a packed tile buffer.
func (t Tile) Stride() int {
	return t.Width * BytesPerPixel
}

// Empty reports whether the tile covers no pixels.
func (t Tile) Empty() bool {
	return t.Width <= 0 || t.Height <= 0
}
