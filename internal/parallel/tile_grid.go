// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"errors"
	"fmt"
)

// ErrInvalidDimensions is returned when the image width, height or tile size is not positive.
var ErrInvalidDimensions = errors.New("parallel: invalid dimensions")

// TileGrid is a partition of an image into tiles.
//
// The grid divides a width x height image into tileSize x tileSize tiles in
// row-major order. Tiles in the last column and row are clipped to the image
// bounds, so the tiles cover every pixel exactly once with no overlap.
// Tiles are stored in a flat slice, indexed by ty*tilesX + tx.
//
// Thread safety: TileGrid is immutable and safe for concurrent reads.
type TileGrid struct {
	// tiles is a flat slice of all tiles (row-major order).
	tiles []Tile

	// width is the image width in pixels.
	width int

	// height is the image height in pixels.
	height int

	// tileSize is the nominal edge length of a tile.
	tileSize int
}

// NewTileGrid partitions a width x height image into tiles of tileSize.
// Returns ErrInvalidDimensions if any argument is zero or negative.
func NewTileGrid(width, height, tileSize int) (*TileGrid, error) {
	if width <= 0 || height <= 0 || tileSize <= 0 {
		return nil, fmt.Errorf("%w: %dx%d with tile size %d", ErrInvalidDimensions, width, height, tileSize)
	}

	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	g := &TileGrid{
		tiles:    make([]Tile, 0, tilesX*tilesY),
		width:    width,
		height:   height,
		tileSize: tileSize,
	}

	for ty := range tilesY {
		for tx := range tilesX {
			x := tx * tileSize
			y := ty * tileSize

			// Edge tiles are clipped to the image.
			g.tiles = append(g.tiles, Tile{
				Index:  len(g.tiles),
				X:      x,
				Y:      y,
				Width:  min(tileSize, width-x),
				Height: min(tileSize, height-y),
			})
		}
	}

	return g, nil
}

// Partition returns the row-major tiles covering a width x height image.
// It is a convenience wrapper around NewTileGrid.
func Partition(width, height, tileSize int) ([]Tile, error) {
	g, err := NewTileGrid(width, height, tileSize)
	if err != nil {
		return nil, err
	}
	return g.Tiles(), nil
}

// Tiles returns a copy of all tiles in row-major order.
func (g *TileGrid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// TileByIndex returns the tile with the given row-major index.
func (g *TileGrid) TileByIndex(idx int) (Tile, bool) {
	if idx < 0 || idx >= len(g.tiles) {
		return Tile{}, false
	}
	return g.tiles[idx], true
}

// TileCount returns the total number of tiles in the grid.
func (g *TileGrid) TileCount() int {
	return len(g.tiles)
}

// Width returns the image width in pixels.
func (g *TileGrid) Width() int {
	return g.width
}

// Height returns the image height in pixels.
func (g *TileGrid) Height() int {
	return g.height
}

// TileSize returns the nominal tile edge length in pixels.
func (g *TileGrid) TileSize() int {
	return g.tileSize
}
