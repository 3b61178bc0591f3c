// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilerender

// Option configures a Controller during creation.
//
// Example:
//
//	// Default solid tiles
//	c := tilerender.NewController()
//
//	// Checkerboard with a simulated 50ms-per-tile load
//	c := tilerender.NewController(
//	    tilerender.WithFiller(tilerender.WithLoad(tilerender.CheckerFiller{}, 50*time.Millisecond)),
//	)
type Option func(*controllerOptions)

// controllerOptions holds optional configuration for Controller creation.
type controllerOptions struct {
	filler Filler
}

// defaultOptions returns the default controller options.
func defaultOptions() controllerOptions {
	return controllerOptions{
		filler: SolidFiller{},
	}
}

// WithFiller sets the function that computes tile content.
// A nil filler keeps the default SolidFiller.
func WithFiller(f Filler) Option {
	return func(o *controllerOptions) {
		if f != nil {
			o.filler = f
		}
	}
}
