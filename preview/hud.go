package preview

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/tilerender"
)

const (
	hudFontSize = 12
	hudPad      = 4
	hudBar      = 4
)

var (
	hudShade = color.RGBA{A: 0xB0}
	hudTrack = color.RGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xFF}
	hudText  = image.NewUniform(color.RGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF})
)

// barColor returns the progress bar colour for a session state.
func barColor(s tilerender.State) color.RGBA {
	switch s {
	case tilerender.StateCompleted:
		return color.RGBA{R: 0x3C, G: 0xB3, B: 0x71, A: 0xFF}
	case tilerender.StateCancelled:
		return color.RGBA{R: 0xE0, G: 0x8A, B: 0x1E, A: 0xFF}
	default:
		return color.RGBA{R: 0x3D, G: 0x8B, B: 0xFF, A: 0xFF}
	}
}

// hud draws a progress bar and a one-line status over the bottom of a frame.
// Not safe for concurrent use: the face keeps glyph state.
type hud struct {
	face    font.Face
	ascent  int
	height  int
	printer *message.Printer
}

func newHUD(tag language.Tag) (*hud, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("preview: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    hudFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("preview: font face: %w", err)
	}

	m := face.Metrics()
	return &hud{
		face:    face,
		ascent:  m.Ascent.Ceil(),
		height:  hudPad + hudBar + hudPad + (m.Ascent + m.Descent).Ceil() + hudPad,
		printer: message.NewPrinter(tag),
	}, nil
}

// status formats the status line with the printer's locale.
func (h *hud) status(st tilerender.Stats) string {
	return h.printer.Sprintf("%v  %d / %d tiles  %d%%  %v",
		st.State, st.Completed, st.Total,
		int(st.Progress()*100), st.Elapsed.Round(10*time.Millisecond))
}

// draw paints the HUD into the bottom strip of dst.
func (h *hud) draw(dst *image.RGBA, st tilerender.Stats) {
	r := dst.Bounds()
	strip := image.Rect(r.Min.X, r.Max.Y-h.height, r.Max.X, r.Max.Y).Intersect(r)
	if strip.Empty() {
		return
	}
	draw.Draw(dst, strip, image.NewUniform(hudShade), image.Point{}, draw.Over)

	bar := image.Rect(strip.Min.X+hudPad, strip.Min.Y+hudPad, strip.Max.X-hudPad, strip.Min.Y+hudPad+hudBar)
	if bar.Dx() > 0 {
		draw.Draw(dst, bar, image.NewUniform(hudTrack), image.Point{}, draw.Src)
		fill := bar
		fill.Max.X = bar.Min.X + int(float64(bar.Dx())*st.Progress())
		draw.Draw(dst, fill, image.NewUniform(barColor(st.State)), image.Point{}, draw.Src)
	}

	d := font.Drawer{
		Dst:  dst,
		Src:  hudText,
		Face: h.face,
		Dot:  fixed.P(strip.Min.X+hudPad, bar.Max.Y+hudPad+h.ascent),
	}
	d.DrawString(h.status(st))
}

func (h *hud) close() {
	_ = h.face.Close()
}
