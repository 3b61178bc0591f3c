package tilerender

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scratch(t Tile) *image.RGBA {
	return image.NewRGBA(t.Rect())
}

// =============================================================================
// SolidFiller
// =============================================================================

func TestSolidFiller_UniformOpaque(t *testing.T) {
	tile := Tile{Index: 5, X: 32, Y: 64, Width: 20, Height: 7}
	dst := scratch(tile)
	SolidFiller{}.Fill(dst, tile, image.Pt(100, 100))

	want := dst.RGBAAt(tile.X, tile.Y)
	assert.Equal(t, uint8(255), want.A)
	for y := tile.Y; y < tile.Y+tile.Height; y++ {
		for x := tile.X; x < tile.X+tile.Width; x++ {
			require.Equal(t, want, dst.RGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestSolidFiller_Deterministic(t *testing.T) {
	tile := Tile{Index: 9, Width: 4, Height: 4}
	a, b := scratch(tile), scratch(tile)
	SolidFiller{Seed: 3}.Fill(a, tile, image.Pt(4, 4))
	SolidFiller{Seed: 3}.Fill(b, tile, image.Pt(4, 4))
	assert.Equal(t, a.Pix, b.Pix)
}

func TestSolidFiller_VariesByTileAndSeed(t *testing.T) {
	colorOf := func(seed uint64, idx int) color.RGBA {
		tile := Tile{Index: idx, Width: 1, Height: 1}
		dst := scratch(tile)
		SolidFiller{Seed: seed}.Fill(dst, tile, image.Pt(1, 1))
		return dst.RGBAAt(0, 0)
	}

	distinct := make(map[color.RGBA]struct{})
	for idx := range 64 {
		distinct[colorOf(0, idx)] = struct{}{}
	}
	// 64 random 24-bit colours practically never collide much.
	assert.Greater(t, len(distinct), 60)

	assert.NotEqual(t, colorOf(1, 0), colorOf(2, 0))
}

// =============================================================================
// CheckerFiller
// =============================================================================

func TestCheckerFiller_ContinuousAcrossTiles(t *testing.T) {
	f := CheckerFiller{Cell: 4}
	size := image.Pt(12, 12)

	whole := Tile{Width: 12, Height: 12}
	ref := scratch(whole)
	f.Fill(ref, whole, size)

	// The same pixels rendered through a tile with an odd origin match.
	part := Tile{Index: 1, X: 5, Y: 3, Width: 7, Height: 9}
	dst := scratch(part)
	f.Fill(dst, part, size)

	for y := part.Y; y < part.Y+part.Height; y++ {
		for x := part.X; x < part.X+part.Width; x++ {
			require.Equal(t, ref.RGBAAt(x, y), dst.RGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestCheckerFiller_Defaults(t *testing.T) {
	tile := Tile{Width: 16, Height: 1}
	dst := scratch(tile)
	CheckerFiller{}.Fill(dst, tile, image.Pt(16, 1))

	dark := color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
	light := color.RGBA{R: 0xC0, G: 0xC0, B: 0xC0, A: 0xFF}
	assert.Equal(t, dark, dst.RGBAAt(0, 0))
	assert.Equal(t, dark, dst.RGBAAt(7, 0))
	assert.Equal(t, light, dst.RGBAAt(8, 0))
}

// =============================================================================
// GradientFiller
// =============================================================================

func TestGradientFiller_Ramps(t *testing.T) {
	size := image.Pt(256, 256)
	tile := Tile{Width: 256, Height: 256}
	dst := scratch(tile)
	GradientFiller{}.Fill(dst, tile, size)

	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 0x40, A: 0xFF}, dst.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 0x40, A: 0xFF}, dst.RGBAAt(255, 255))
	assert.Equal(t, uint8(128), dst.RGBAAt(128, 0).R)
}

func TestRamp(t *testing.T) {
	assert.Equal(t, byte(0), ramp(0, 1))
	assert.Equal(t, byte(0), ramp(0, 10))
	assert.Equal(t, byte(255), ramp(9, 10))
}

// =============================================================================
// WithLoad
// =============================================================================

func TestWithLoad_ShortDelayReturnsInner(t *testing.T) {
	f := GradientFiller{}
	assert.Equal(t, Filler(f), WithLoad(f, time.Millisecond))
	assert.Equal(t, Filler(f), WithLoad(f, 0))
}

func TestWithLoad_DelayRange(t *testing.T) {
	const maxDelay = 20 * time.Millisecond
	for idx := range 200 {
		d := loadDelay(idx, maxDelay)
		require.GreaterOrEqual(t, d, time.Millisecond)
		require.Less(t, d, maxDelay)
	}
	assert.Equal(t, loadDelay(7, maxDelay), loadDelay(7, maxDelay))
}

func TestWithLoad_SleepsAndFills(t *testing.T) {
	tile := Tile{Index: 2, Width: 2, Height: 2}
	dst := scratch(tile)
	f := WithLoad(SolidFiller{}, 3*time.Millisecond)

	start := time.Now()
	f.Fill(dst, tile, image.Pt(2, 2))

	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
	assert.Equal(t, uint8(255), dst.RGBAAt(1, 1).A)
}

// =============================================================================
// Registry
// =============================================================================

func TestFillerByName(t *testing.T) {
	f, err := FillerByName("solid", 11)
	require.NoError(t, err)
	assert.Equal(t, SolidFiller{Seed: 11}, f)

	f, err = FillerByName("checker", 0)
	require.NoError(t, err)
	assert.IsType(t, CheckerFiller{}, f)

	f, err = FillerByName("gradient", 0)
	require.NoError(t, err)
	assert.IsType(t, GradientFiller{}, f)

	_, err = FillerByName("plasma", 0)
	assert.ErrorContains(t, err, "plasma")
}

func TestFillerNames(t *testing.T) {
	assert.Equal(t, []string{"checker", "gradient", "solid"}, FillerNames())
}

func TestFillRect_Clips(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	c := color.RGBA{R: 9, A: 255}
	fillRect(dst, image.Rect(2, 2, 10, 10), c)

	assert.Equal(t, c, dst.RGBAAt(3, 3))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(1, 1))

	// Entirely outside.
	fillRect(dst, image.Rect(20, 20, 30, 30), c)
}

func TestFillerFunc(t *testing.T) {
	called := false
	var f Filler = FillerFunc(func(*image.RGBA, Tile, image.Point) { called = true })
	f.Fill(nil, Tile{}, image.Point{})
	assert.True(t, called)
}
