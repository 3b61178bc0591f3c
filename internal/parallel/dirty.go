// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"math/bits"
	"sync/atomic"
)

// DirtyRegion tracks which tiles were committed since the last read using an
// atomic bitmap. Workers mark a tile after writing it; the presentation side
// collects and clears the marks once per frame.
//
// The bitmap uses one bit per tile index, packed into uint64 words (64 tiles
// per word). All methods are safe for concurrent use without external
// synchronization.
type DirtyRegion struct {
	// words is the atomic bitmap where each bit represents a tile's dirty state.
	// Word index = tile index / 64, bit position = tile index % 64.
	words []atomic.Uint64

	// tiles is the number of tracked tiles.
	tiles int
}

// NewDirtyRegion creates a tracker for tiles tile indices, all clean.
// Returns nil if tiles is zero or negative.
func NewDirtyRegion(tiles int) *DirtyRegion {
	if tiles <= 0 {
		return nil
	}
	return &DirtyRegion{
		words: make([]atomic.Uint64, (tiles+63)/64),
		tiles: tiles,
	}
}

// Mark marks the tile with the given index as dirty.
// This is a lock-free O(1) operation using atomic OR.
// Does nothing if the index is out of range.
func (d *DirtyRegion) Mark(idx int) {
	if idx < 0 || idx >= d.tiles {
		return
	}
	d.words[idx/64].Or(1 << (idx & 63))
}

// MarkAll marks every tile as dirty.
func (d *DirtyRegion) MarkAll() {
	full := d.tiles / 64
	for i := range full {
		d.words[i].Store(^uint64(0))
	}
	if rem := d.tiles % 64; rem > 0 {
		d.words[full].Store(uint64(1)<<rem - 1)
	}
}

// Clear marks every tile as clean.
func (d *DirtyRegion) Clear() {
	for i := range d.words {
		d.words[i].Store(0)
	}
}

// GetAndClear atomically retrieves the dirty tile indices in ascending order
// and clears them. Marks set concurrently are either returned now or kept
// for the next call, never lost.
func (d *DirtyRegion) GetAndClear() []int {
	var dirty []int
	for wordIdx := range d.words {
		word := d.words[wordIdx].Swap(0)
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			dirty = append(dirty, wordIdx*64+bit)
			word &^= 1 << bit
		}
	}
	return dirty
}
