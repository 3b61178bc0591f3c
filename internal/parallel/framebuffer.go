// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"fmt"
	"image"
	"sync/atomic"
)

// Framebuffer is the shared pixel arena written by workers.
//
// Pixels are stored row-major, one atomic 32-bit word per pixel holding the
// RGBA bytes. Workers write disjoint tiles, so they never contend; the atomic
// word only guarantees that a concurrent snapshot never observes a torn pixel.
// Tearing across tiles is expected during a live render.
//
// Thread safety: Framebuffer is safe for concurrent use.
type Framebuffer struct {
	width  int
	height int
	pix    []atomic.Uint32
}

// NewFramebuffer allocates a zeroed width x height framebuffer.
func NewFramebuffer(width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: framebuffer %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]atomic.Uint32, width*height),
	}, nil
}

// Bounds returns the framebuffer rectangle.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// WriteTile commits src into the region covered by t.
// src must span at least t.Rect(); pixels outside the framebuffer are ignored.
func (f *Framebuffer) WriteTile(t Tile, src *image.RGBA) {
	r := t.Rect().Intersect(f.Bounds()).Intersect(src.Rect)
	if r.Empty() {
		return
	}

	w := r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		s := src.PixOffset(r.Min.X, y)
		row := src.Pix[s : s+w*BytesPerPixel]
		dst := f.pix[y*f.width+r.Min.X : y*f.width+r.Max.X]
		for x := range dst {
			o := x * BytesPerPixel
			dst[x].Store(pack(row[o], row[o+1], row[o+2], row[o+3]))
		}
	}
}

// CopyTo copies the pixels of r into dst at the same coordinates.
// r is clipped to both the framebuffer and dst bounds.
func (f *Framebuffer) CopyTo(dst *image.RGBA, r image.Rectangle) {
	r = r.Intersect(f.Bounds()).Intersect(dst.Rect)
	if r.Empty() {
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := dst.PixOffset(r.Min.X, y)
		row := dst.Pix[d : d+r.Dx()*BytesPerPixel]
		src := f.pix[y*f.width+r.Min.X : y*f.width+r.Max.X]
		for x := range src {
			v := src[x].Load()
			o := x * BytesPerPixel
			row[o] = byte(v)
			row[o+1] = byte(v >> 8)
			row[o+2] = byte(v >> 16)
			row[o+3] = byte(v >> 24)
		}
	}
}

// Snapshot returns a copy of the whole framebuffer.
// dst is reused when its bounds match, otherwise a new image is allocated.
func (f *Framebuffer) Snapshot(dst *image.RGBA) *image.RGBA {
	if dst == nil || dst.Rect != f.Bounds() {
		dst = image.NewRGBA(f.Bounds())
	}
	f.CopyTo(dst, f.Bounds())
	return dst
}

// pack stores RGBA bytes in memory order.
func pack(r, g, b, a byte) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}
