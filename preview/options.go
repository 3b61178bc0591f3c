package preview

import (
	"fmt"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/text/language"
)

// Options configures the preview window.
type Options struct {
	// Title is the window title. Defaults to "tilerender".
	Title string

	// FPS is the redraw rate while rendering. Defaults to 30.
	FPS int

	// Scaler names the interpolator used to fit the image to the window:
	// "nearest" (default), "bilinear" or "catmullrom".
	Scaler string

	// Locale is a BCP 47 tag used to format numbers in the HUD. Defaults to "en".
	Locale string

	// HideHUD disables the progress bar and status line.
	HideHUD bool
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "tilerender"
	}
	if o.FPS <= 0 {
		o.FPS = 30
	}
	if o.Scaler == "" {
		o.Scaler = "nearest"
	}
	if o.Locale == "" {
		o.Locale = "en"
	}
	return o
}

var scalers = map[string]draw.Scaler{
	"nearest":    draw.NearestNeighbor,
	"bilinear":   draw.ApproxBiLinear,
	"catmullrom": draw.CatmullRom,
}

// ScalerByName returns the interpolator registered under name.
func ScalerByName(name string) (draw.Scaler, error) {
	s, ok := scalers[name]
	if !ok {
		return nil, fmt.Errorf("preview: unknown scaler %q (want one of %v)", name, ScalerNames())
	}
	return s, nil
}

// ScalerNames returns the accepted scaler names, sorted.
func ScalerNames() []string {
	names := make([]string, 0, len(scalers))
	for name := range scalers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseLocale parses a BCP 47 tag such as "en", "de-CH" or "fr".
func ParseLocale(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("preview: locale %q: %w", s, err)
	}
	return tag, nil
}
