package main

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/tilerender"
)

const headlessInterval = 250 * time.Millisecond

// runHeadless renders without a window, logging progress every interval.
// Cancelling ctx cancels the render; runHeadless still waits for the
// workers to finish their tiles. It returns the render's worker errors.
func runHeadless(ctx context.Context, c *tilerender.Controller, cfg config, logger *slog.Logger, interval time.Duration) error {
	if err := c.Start(image.Pt(cfg.Width, cfg.Height), cfg.TileSize, cfg.Threads); err != nil {
		return err
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	interrupt := ctx.Done()
	for {
		select {
		case <-c.Done():
			st := c.Stats()
			logger.Info("render done",
				"state", st.State, "completed", st.Completed, "tiles", st.Total,
				"elapsed", st.Elapsed.Round(time.Millisecond))
			return c.Err()

		case <-t.C:
			st := c.Stats()
			logger.Info("progress",
				"percent", int(st.Progress()*100), "completed", st.Completed, "tiles", st.Total,
				"active_workers", st.Active)

		case <-interrupt:
			logger.Info("interrupted, cancelling render")
			c.Cancel()
			interrupt = nil
		}
	}
}
