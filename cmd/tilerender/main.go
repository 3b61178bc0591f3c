// Command tilerender renders a placeholder image tile by tile on a pool of
// workers and shows the progress live in a window.
//
// Usage:
//
//	tilerender [-width 512] [-height 512] [-threads N] [-tile-size 32]
//	           [-max-load-millis 100] [-pattern solid] [-headless] [-config file.toml]
//
// In the window, Escape quits, C cancels and R restarts the render.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"

	"github.com/gogpu/tilerender"
	"github.com/gogpu/tilerender/preview"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "tilerender:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("tilerender", flag.ContinueOnError)
	cfg, err := parseConfig(fs, args, runtime.NumCPU())
	if err != nil {
		return err
	}

	if cfg.writeConfig != "" {
		return cfg.write(cfg.writeConfig)
	}

	level, _ := cfg.level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	tilerender.SetLogger(logger)

	c, err := newController(cfg)
	if err != nil {
		return err
	}

	if cfg.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runHeadless(ctx, c, cfg, logger, headlessInterval)
	}
	return runWindow(c, cfg)
}

func newController(cfg config) (*tilerender.Controller, error) {
	filler, err := tilerender.FillerByName(cfg.Pattern, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return tilerender.NewController(tilerender.WithFiller(tilerender.WithLoad(filler, cfg.maxLoad()))), nil
}

// runWindow starts the render and shows it until the window is closed.
func runWindow(c *tilerender.Controller, cfg config) error {
	sess := preview.NewSession(c, image.Pt(cfg.Width, cfg.Height), cfg.TileSize, cfg.Threads)
	if err := sess.Restart(); err != nil {
		return err
	}

	var runErr error
	driver.Main(func(s screen.Screen) {
		runErr = preview.Run(s, sess, cfg.previewOptions())
	})

	// Run cancelled the render on return; let in-flight tiles finish.
	<-c.Done()
	return runErr
}
