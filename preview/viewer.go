// Package preview shows a render session in a desktop window.
//
// The window polls a Source once per tick, copies only the tiles finished
// since the previous frame, scales the image to the window with its aspect
// ratio preserved, and overlays a progress HUD. Keys:
//
//	Escape        cancel and quit
//	C, Backspace  cancel
//	R, Space      restart
//
// Closing the window cancels the render.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/tilerender"
)

var background = image.NewUniform(color.RGBA{R: 0x18, G: 0x18, B: 0x18, A: 0xFF})

// Viewer composes preview frames from a Source.
//
// Update and Compose must be called from one goroutine.
type Viewer struct {
	src    Source
	scaler draw.Scaler
	hud    *hud

	mirror *image.RGBA
	last   tilerender.Stats
	stale  bool
}

// NewViewer creates a viewer for src.
func NewViewer(src Source, opts Options) (*Viewer, error) {
	opts = opts.withDefaults()

	scaler, err := ScalerByName(opts.Scaler)
	if err != nil {
		return nil, err
	}

	v := &Viewer{src: src, scaler: scaler, stale: true}
	if !opts.HideHUD {
		tag, err := ParseLocale(opts.Locale)
		if err != nil {
			return nil, err
		}
		if v.hud, err = newHUD(tag); err != nil {
			return nil, fmt.Errorf("preview: hud: %w", err)
		}
	}
	return v, nil
}

// Update pulls finished tiles into the mirror and reports whether the next
// frame differs from the previous one.
func (v *Viewer) Update() bool {
	var rects []image.Rectangle
	v.mirror, rects = v.src.SnapshotDirty(v.mirror)
	st := v.src.Stats()

	changed := v.stale || len(rects) > 0 ||
		st.State != v.last.State || st.Completed != v.last.Completed || st.Total != v.last.Total
	// The elapsed time on the HUD moves while running.
	if v.hud != nil && st.State == tilerender.StateRunning {
		changed = true
	}

	if len(rects) > 0 {
		tilerender.Logger().Debug("preview dirty tiles", "count", len(rects), "completed", st.Completed)
	}

	v.last = st
	v.stale = false
	return changed
}

// Invalidate forces the next Update to report a change.
func (v *Viewer) Invalidate() {
	v.stale = true
}

// Mirror returns the viewer's copy of the framebuffer, or nil before the
// first render.
func (v *Viewer) Mirror() *image.RGBA {
	return v.mirror
}

// Compose draws the current frame into dst: letterbox background, the
// scaled mirror, then the HUD.
func (v *Viewer) Compose(dst *image.RGBA) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, background, image.Point{}, draw.Src)

	if v.mirror != nil {
		if fit := fitRect(v.mirror.Bounds().Size(), bounds); !fit.Empty() {
			v.scaler.Scale(dst, fit, v.mirror, v.mirror.Bounds(), draw.Src, nil)
		}
	}
	if v.hud != nil {
		v.hud.draw(dst, v.last)
	}
}

// Close releases the HUD font face.
func (v *Viewer) Close() {
	if v.hud != nil {
		v.hud.close()
	}
}

// fitRect returns the largest rectangle with the aspect ratio of src that
// fits in dst, centred.
func fitRect(src image.Point, dst image.Rectangle) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 || dst.Empty() {
		return image.Rectangle{}
	}

	w, h := dst.Dx(), src.Y*dst.Dx()/src.X
	if h > dst.Dy() {
		w, h = src.X*dst.Dy()/src.Y, dst.Dy()
	}

	x := dst.Min.X + (dst.Dx()-w)/2
	y := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}
