// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilerender

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/gogpu/tilerender/internal/parallel"
)

// Tile is one rectangular unit of render work.
// Index is its row-major position; X, Y, Width and Height are in image pixels.
type Tile = parallel.Tile

// Filler computes the pixel content of a tile.
//
// dst is a zeroed scratch image whose bounds equal t.Rect(), in image
// coordinates. size is the full image size. Implementations must be
// deterministic in (t, size): the final image must not depend on the number
// of workers or the order in which tiles are rendered. Fill is called
// concurrently from several workers.
type Filler interface {
	Fill(dst *image.RGBA, t Tile, size image.Point)
}

// FillerFunc adapts a function to the Filler interface.
type FillerFunc func(dst *image.RGBA, t Tile, size image.Point)

// Fill calls f(dst, t, size).
func (f FillerFunc) Fill(dst *image.RGBA, t Tile, size image.Point) {
	f(dst, t, size)
}

// SolidFiller paints each tile a single opaque pseudo-random colour chosen
// from the tile index and Seed.
type SolidFiller struct {
	Seed uint64
}

// Fill implements Filler.
func (f SolidFiller) Fill(dst *image.RGBA, t Tile, _ image.Point) {
	rng := tileRand(f.Seed, t.Index)
	fillRect(dst, dst.Rect, color.RGBA{
		R: byte(rng.IntN(255)),
		G: byte(rng.IntN(255)),
		B: byte(rng.IntN(255)),
		A: 255,
	})
}

// CheckerFiller paints a checkerboard aligned to the image origin, so the
// pattern is continuous across tile edges.
type CheckerFiller struct {
	// Cell is the square size in pixels. Defaults to 8.
	Cell int

	// A and B are the two colours. Zero values default to dark and light grey.
	A, B color.RGBA
}

// Fill implements Filler.
func (f CheckerFiller) Fill(dst *image.RGBA, t Tile, _ image.Point) {
	cell := f.Cell
	if cell <= 0 {
		cell = 8
	}
	a, b := f.A, f.B
	if a == (color.RGBA{}) {
		a = color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
	}
	if b == (color.RGBA{}) {
		b = color.RGBA{R: 0xC0, G: 0xC0, B: 0xC0, A: 0xFF}
	}

	for y := t.Y; y < t.Y+t.Height; y++ {
		row := dst.Pix[dst.PixOffset(t.X, y):]
		for x := t.X; x < t.X+t.Width; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			o := (x - t.X) * 4
			row[o], row[o+1], row[o+2], row[o+3] = c.R, c.G, c.B, c.A
		}
	}
}

// GradientFiller paints red along x and green along y over the whole image,
// with blue alternating per tile so tile boundaries stay visible.
type GradientFiller struct{}

// Fill implements Filler.
func (GradientFiller) Fill(dst *image.RGBA, t Tile, size image.Point) {
	blue := byte(0x40)
	if t.Index%2 == 1 {
		blue = 0x80
	}

	for y := t.Y; y < t.Y+t.Height; y++ {
		g := ramp(y, size.Y)
		row := dst.Pix[dst.PixOffset(t.X, y):]
		for x := t.X; x < t.X+t.Width; x++ {
			o := (x - t.X) * 4
			row[o], row[o+1], row[o+2], row[o+3] = ramp(x, size.X), g, blue, 0xFF
		}
	}
}

// ramp maps v in [0, n) onto [0, 255].
func ramp(v, n int) byte {
	if n <= 1 {
		return 0
	}
	return byte(v * 255 / (n - 1))
}

// WithLoad wraps f so that every tile also sleeps for a deterministic
// pseudo-random duration in [1ms, maxDelay), simulating an expensive render.
// A maxDelay of 1ms or less returns f unchanged.
func WithLoad(f Filler, maxDelay time.Duration) Filler {
	if maxDelay <= time.Millisecond {
		return f
	}
	return loadFiller{inner: f, maxDelay: maxDelay}
}

type loadFiller struct {
	inner    Filler
	maxDelay time.Duration
}

func (f loadFiller) Fill(dst *image.RGBA, t Tile, size image.Point) {
	f.inner.Fill(dst, t, size)
	time.Sleep(loadDelay(t.Index, f.maxDelay))
}

// loadSeed separates the delay stream from colour streams.
const loadSeed = 0x6c6f6164

func loadDelay(idx int, maxDelay time.Duration) time.Duration {
	span := int64(maxDelay - time.Millisecond)
	return time.Millisecond + time.Duration(tileRand(loadSeed, idx).Int64N(span))
}

// tileRand returns a generator seeded from seed and the tile index.
func tileRand(seed uint64, idx int) *rand.Rand {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[0:], seed)
	binary.LittleEndian.PutUint64(s[8:], uint64(idx)) //nolint:gosec // tile indices are non-negative
	return rand.New(rand.NewChaCha8(s))
}

// fillRect fills r of dst with c: the first row is written pixel by pixel
// and then copied to the remaining rows.
func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Rect)
	if r.Empty() {
		return
	}

	start := dst.PixOffset(r.Min.X, r.Min.Y)
	n := r.Dx() * 4
	first := dst.Pix[start : start+n]
	for o := 0; o < n; o += 4 {
		first[o], first[o+1], first[o+2], first[o+3] = c.R, c.G, c.B, c.A
	}

	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		o := dst.PixOffset(r.Min.X, y)
		copy(dst.Pix[o:o+n], first)
	}
}

// builtinFillers maps pattern names to constructors.
var builtinFillers = map[string]func(seed uint64) Filler{
	"solid":    func(seed uint64) Filler { return SolidFiller{Seed: seed} },
	"checker":  func(uint64) Filler { return CheckerFiller{} },
	"gradient": func(uint64) Filler { return GradientFiller{} },
}

// FillerByName returns a built-in filler: "solid", "checker" or "gradient".
// seed is used by fillers that have one.
func FillerByName(name string, seed uint64) (Filler, error) {
	ctor, ok := builtinFillers[name]
	if !ok {
		return nil, fmt.Errorf("tilerender: unknown pattern %q (want one of %v)", name, FillerNames())
	}
	return ctor(seed), nil
}

// FillerNames returns the names accepted by FillerByName, sorted.
func FillerNames() []string {
	names := make([]string, 0, len(builtinFillers))
	for name := range builtinFillers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
