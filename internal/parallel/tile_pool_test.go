package parallel

import (
	"sync"
	"testing"
)

func TestTilePool_GetFullTile(t *testing.T) {
	p := NewTilePool(32)
	tile := Tile{X: 64, Y: 32, Width: 32, Height: 32}

	img := p.Get(tile)
	if img == nil {
		t.Fatal("Get returned nil")
	}
	if img.Rect != tile.Rect() {
		t.Errorf("Rect = %v, want %v", img.Rect, tile.Rect())
	}
	if img.Stride != tile.Stride() {
		t.Errorf("Stride = %d, want %d", img.Stride, tile.Stride())
	}
	if want := tile.Stride() * tile.Height; len(img.Pix) < want {
		t.Errorf("len(Pix) = %d, want >= %d", len(img.Pix), want)
	}
}

func TestTilePool_GetEdgeTile(t *testing.T) {
	p := NewTilePool(32)
	tile := Tile{X: 96, Y: 0, Width: 4, Height: 32}

	img := p.Get(tile)
	if img.Rect != tile.Rect() {
		t.Errorf("Rect = %v, want %v", img.Rect, tile.Rect())
	}
	if img.Stride != 16 {
		t.Errorf("Stride = %d, want 16", img.Stride)
	}
	p.Put(img)
}

func TestTilePool_GetEmpty(t *testing.T) {
	p := NewTilePool(32)
	if img := p.Get(Tile{Width: 0, Height: 4}); img != nil {
		t.Error("Get of empty tile should return nil")
	}
	p.Put(nil) // must not panic
}

func TestTilePool_ReuseIsZeroed(t *testing.T) {
	p := NewTilePool(8)
	tile := Tile{Width: 8, Height: 8}

	img := p.Get(tile)
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	p.Put(img)

	// Whether or not the pool hands back the same image, it must be clean
	// and carry the new tile's bounds.
	next := Tile{X: 8, Y: 16, Width: 8, Height: 8}
	img = p.Get(next)
	for i, b := range img.Pix {
		if b != 0 {
			t.Fatalf("Pix[%d] = %d, want 0", i, b)
		}
	}
	if img.Rect != next.Rect() {
		t.Errorf("Rect = %v, want %v", img.Rect, next.Rect())
	}
}

func TestTilePool_Concurrent(t *testing.T) {
	p := NewTilePool(16)
	tiles, _ := Partition(100, 100, 16)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := w; i < len(tiles); i += 8 {
				img := p.Get(tiles[i])
				if img.Rect != tiles[i].Rect() {
					t.Errorf("Rect = %v, want %v", img.Rect, tiles[i].Rect())
				}
				p.Put(img)
			}
		}()
	}
	wg.Wait()
}

func TestPoolKey(t *testing.T) {
	if poolKey(4, 32) == poolKey(32, 4) {
		t.Error("poolKey should distinguish width and height")
	}
	if poolKey(70000, 5) == poolKey(100000, 5) {
		t.Error("poolKey should not collide for sizes above 16 bits")
	}
}

// TestTilePool_WideEdgeTiles returns a wide edge buffer to the pool and then
// asks for a wider one; the second must still cover its tile.
func TestTilePool_WideEdgeTiles(t *testing.T) {
	p := NewTilePool(100000)

	narrow := Tile{Width: 70000, Height: 5}
	p.Put(p.Get(narrow))

	wide := Tile{Width: 100000, Height: 5}
	img := p.Get(wide)
	if want := wide.Stride() * wide.Height; len(img.Pix) < want {
		t.Fatalf("len(Pix) = %d, want >= %d", len(img.Pix), want)
	}
	if img.Rect != wide.Rect() {
		t.Errorf("Rect = %v, want %v", img.Rect, wide.Rect())
	}
}
