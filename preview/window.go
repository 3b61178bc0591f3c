package preview

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/gogpu/tilerender"
)

// defaultSize is the window size used when the session has no size yet.
var defaultSize = image.Pt(512, 512)

// tickEvent asks the loop to poll the session.
type tickEvent struct{}

// window is the part of screen.Window the event loop uses.
type window interface {
	NextEvent() interface{}
	Send(event interface{})
	Upload(dp image.Point, src screen.Buffer, sr image.Rectangle)
	Publish() screen.PublishResult
	Release()
}

// Run opens a window on s showing sess and blocks until the window is
// closed or Escape is pressed. Run does not start a render; press R or call
// sess.Restart first. A render still running when Run returns is cancelled,
// whether the window closed normally or failed.
//
// Run must be called from the function passed to driver.Main.
func Run(s screen.Screen, sess Session, opts Options) error {
	opts = opts.withDefaults()

	v, err := NewViewer(sess, opts)
	if err != nil {
		return err
	}
	defer v.Close()
	defer sess.Cancel()

	sz := sess.Size()
	if sz.X <= 0 || sz.Y <= 0 {
		sz = defaultSize
	}
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Title:  opts.Title,
		Width:  sz.X,
		Height: sz.Y,
	})
	if err != nil {
		return fmt.Errorf("preview: new window: %w", err)
	}
	defer w.Release()

	stop := make(chan struct{})
	defer close(stop)
	go ticker(w, time.Second/time.Duration(opts.FPS), stop)

	tilerender.Logger().Info("preview window opened", "width", sz.X, "height", sz.Y, "fps", opts.FPS, "scaler", opts.Scaler)
	l := &loop{win: w, newBuffer: s.NewBuffer, sess: sess, viewer: v}
	return l.run()
}

// ticker sends a tickEvent every interval until stop is closed.
func ticker(w window, interval time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			w.Send(tickEvent{})
		}
	}
}

// loop is the window event loop. All fields are owned by the goroutine
// running it.
type loop struct {
	win       window
	newBuffer func(image.Point) (screen.Buffer, error)
	sess      Session
	viewer    *Viewer

	buf screen.Buffer
}

func (l *loop) run() error {
	defer l.releaseBuffer()

	for {
		switch e := l.win.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				l.sess.Cancel()
				return nil
			}

		case key.Event:
			if quit := l.handleKey(e); quit {
				return nil
			}

		case size.Event:
			if err := l.resize(e.Size()); err != nil {
				return err
			}

		case paint.Event:
			l.viewer.Invalidate()
			l.paint()

		case tickEvent:
			l.paint()

		case error:
			tilerender.Logger().Warn("preview window event error", "err", e)
		}
	}
}

// handleKey applies a key binding and reports whether the loop should exit.
func (l *loop) handleKey(e key.Event) bool {
	a := actionFor(e)
	if a == actionNone {
		return false
	}
	tilerender.Logger().Debug("preview key", "action", a)

	switch a {
	case actionQuit:
		l.sess.Cancel()
		return true
	case actionCancel:
		l.sess.Cancel()
	case actionRestart:
		if err := l.sess.Restart(); err != nil {
			tilerender.Logger().Warn("preview restart rejected", "err", err)
			return false
		}
		l.viewer.Invalidate()
	}
	return false
}

// resize replaces the window buffer with one of the new size.
func (l *loop) resize(sz image.Point) error {
	l.releaseBuffer()
	if sz.X <= 0 || sz.Y <= 0 {
		return nil
	}

	b, err := l.newBuffer(sz)
	if err != nil {
		return fmt.Errorf("preview: new buffer %v: %w", sz, err)
	}
	l.buf = b
	l.viewer.Invalidate()
	return nil
}

// paint recomposes and publishes a frame if anything changed.
func (l *loop) paint() {
	if l.buf == nil {
		return
	}
	if !l.viewer.Update() {
		return
	}
	l.viewer.Compose(l.buf.RGBA())
	l.win.Upload(image.Point{}, l.buf, l.buf.Bounds())
	l.win.Publish()
}

func (l *loop) releaseBuffer() {
	if l.buf != nil {
		l.buf.Release()
		l.buf = nil
	}
}
