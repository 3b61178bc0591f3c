// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"image"
	"sync"
)

// TilePool provides reuse of tile scratch images via sync.Pool.
//
// Workers fill a private scratch image before committing it to the shared
// Framebuffer. The pool keeps one sync.Pool per tile size so that edge tiles
// do not evict full-size buffers.
//
// Thread safety: TilePool is safe for concurrent use.
type TilePool struct {
	// tileSize is the size served by the fast path.
	tileSize int

	// pools holds separate sync.Pool instances for edge tile sizes,
	// keyed by the exact size as an image.Point.
	pools sync.Map

	// fullTilePool is the dedicated pool for full-size tiles.
	// This is the most common case, so we optimize for it.
	fullTilePool sync.Pool
}

// NewTilePool creates a tile pool whose fast path serves tileSize x tileSize images.
func NewTilePool(tileSize int) *TilePool {
	p := &TilePool{tileSize: tileSize}

	p.fullTilePool.New = func() any {
		return image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	}

	return p
}

// Get retrieves a zeroed scratch image whose bounds equal t.Rect().
// Returns nil for an empty tile.
func (p *TilePool) Get(t Tile) *image.RGBA {
	if t.Empty() {
		return nil
	}

	var img *image.RGBA
	if t.Width == p.tileSize && t.Height == p.tileSize {
		img = p.fullTilePool.Get().(*image.RGBA)
	} else {
		img = p.getOrCreatePool(t.Width, t.Height).Get().(*image.RGBA)
	}

	clear(img.Pix)
	img.Stride = t.Stride()
	img.Rect = t.Rect()
	return img
}

// Put returns a scratch image to the pool.
// If img is nil, this is a no-op.
func (p *TilePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == p.tileSize && h == p.tileSize {
		p.fullTilePool.Put(img)
		return
	}

	if pool, ok := p.pools.Load(poolKey(w, h)); ok {
		pool.(*sync.Pool).Put(img)
	}
	// If pool doesn't exist, let GC reclaim the image
}

// poolKey returns the sync.Map key for a tile size.
func poolKey(width, height int) image.Point {
	return image.Pt(width, height)
}

// getOrCreatePool gets or creates a sync.Pool for the given dimensions.
func (p *TilePool) getOrCreatePool(width, height int) *sync.Pool {
	key := poolKey(width, height)
	if pool, ok := p.pools.Load(key); ok {
		return pool.(*sync.Pool)
	}

	newPool := &sync.Pool{
		New: func() any {
			return image.NewRGBA(image.Rect(0, 0, width, height))
		},
	}

	// Try to store; if another goroutine beat us, use theirs
	actual, _ := p.pools.LoadOrStore(key, newPool)
	return actual.(*sync.Pool)
}
