package preview

import (
	"image"

	"github.com/gogpu/tilerender"
)

// Source is the read side of a render that the viewer polls every frame.
// *tilerender.Controller implements it.
type Source interface {
	Size() image.Point
	Stats() tilerender.Stats
	Progress() float64
	SnapshotDirty(dst *image.RGBA) (*image.RGBA, []image.Rectangle)
}

// Session is a Source the user can control from the window.
type Session interface {
	Source

	// Restart starts a new render. It fails while one is running.
	Restart() error

	// Cancel stops the running render, if any.
	Cancel()
}

// controllerSession binds a Controller to fixed render parameters.
type controllerSession struct {
	*tilerender.Controller

	size     image.Point
	tileSize int
	workers  int
}

// NewSession returns a Session whose Restart starts c with the given size,
// tile size and worker count.
func NewSession(c *tilerender.Controller, size image.Point, tileSize, workers int) Session {
	return &controllerSession{Controller: c, size: size, tileSize: tileSize, workers: workers}
}

func (s *controllerSession) Restart() error {
	return s.Start(s.size, s.tileSize, s.workers)
}

// Size reports the configured size before the first render has started.
func (s *controllerSession) Size() image.Point {
	if sz := s.Controller.Size(); sz != (image.Point{}) {
		return sz
	}
	return s.size
}
