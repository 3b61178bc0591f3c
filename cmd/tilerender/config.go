package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/tilerender"
	"github.com/gogpu/tilerender/preview"
)

var errInvalidConfig = errors.New("invalid config")

// config holds every setting of a run. File keys are the toml tags; each
// has a flag with the same name in kebab case.
type config struct {
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	Threads       int    `toml:"threads"`
	TileSize      int    `toml:"tile_size"`
	MaxLoadMillis int    `toml:"max_load_millis"`
	Pattern       string `toml:"pattern"`
	Seed          uint64 `toml:"seed"`
	FPS           int    `toml:"fps"`
	Scaler        string `toml:"scaler"`
	Locale        string `toml:"locale"`
	HideHUD       bool   `toml:"hide_hud"`
	Headless      bool   `toml:"headless"`
	LogLevel      string `toml:"log_level"`

	// Not read from the file.
	path        string
	writeConfig string
	numCPU      int
}

func defaultConfig(numCPU int) config {
	return config{
		Width:         512,
		Height:        512,
		Threads:       numCPU,
		TileSize:      32,
		MaxLoadMillis: 100,
		Pattern:       "solid",
		FPS:           30,
		Scaler:        "nearest",
		Locale:        "en",
		LogLevel:      "info",
		numCPU:        numCPU,
	}
}

// parseConfig resolves defaults, then the -config file, then flags given
// on the command line, and validates the result.
func parseConfig(fs *flag.FlagSet, args []string, numCPU int) (config, error) {
	cfg := defaultConfig(numCPU)

	fs.IntVar(&cfg.Width, "width", cfg.Width, "image width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "image height in pixels")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "number of render workers (at most the number of logical CPUs)")
	fs.IntVar(&cfg.TileSize, "tile-size", cfg.TileSize, "tile edge length in pixels")
	fs.IntVar(&cfg.MaxLoadMillis, "max-load-millis", cfg.MaxLoadMillis, "maximum simulated render time per tile in milliseconds")
	fs.StringVar(&cfg.Pattern, "pattern", cfg.Pattern, fmt.Sprintf("tile pattern %v", tilerender.FillerNames()))
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for the solid pattern")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "preview redraw rate")
	fs.StringVar(&cfg.Scaler, "scaler", cfg.Scaler, fmt.Sprintf("preview scaler %v", preview.ScalerNames()))
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for numbers in the preview status line")
	fs.BoolVar(&cfg.HideHUD, "hide-hud", cfg.HideHUD, "hide the preview progress bar and status line")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "render without a window, logging progress")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.path, "config", "", "TOML config `file`; flags given on the command line override it")
	fs.StringVar(&cfg.writeConfig, "write-config", "", "write the effective config to `file` and exit")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.path != "" {
		// Remember explicit flags so they win over the file.
		set := make(map[string]string)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })

		if err := cfg.decodeFile(cfg.path); err != nil {
			return config{}, err
		}
		for name, value := range set {
			if err := fs.Set(name, value); err != nil {
				return config{}, fmt.Errorf("flag -%s: %w", name, err)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// decodeFile overlays the values present in a TOML file. Unknown keys are
// rejected so typos do not go unnoticed.
func (c *config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: %s: unknown keys %v", errInvalidConfig, path, undecoded)
	}
	return nil
}

// write saves the file-backed settings as TOML.
func (c *config) write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return f.Close()
}

func (c *config) validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{errInvalidConfig}, args...)...))
	}

	if c.Width <= 0 || c.Height <= 0 {
		bad("image size %dx%d must be positive", c.Width, c.Height)
	}
	if c.TileSize <= 0 {
		bad("tile size %d must be positive", c.TileSize)
	}
	if c.Threads <= 0 || c.Threads > c.numCPU {
		bad("threads %d must be between 1 and the %d logical CPUs", c.Threads, c.numCPU)
	}
	if c.MaxLoadMillis < 0 {
		bad("max load %dms must not be negative", c.MaxLoadMillis)
	}
	if c.FPS < 1 || c.FPS > 240 {
		bad("fps %d must be between 1 and 240", c.FPS)
	}
	if _, err := tilerender.FillerByName(c.Pattern, c.Seed); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", errInvalidConfig, err))
	}
	if _, err := preview.ScalerByName(c.Scaler); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", errInvalidConfig, err))
	}
	if _, err := preview.ParseLocale(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", errInvalidConfig, err))
	}
	if _, err := c.level(); err != nil {
		bad("log level %q", c.LogLevel)
	}

	return errors.Join(errs...)
}

func (c *config) level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

func (c *config) maxLoad() time.Duration {
	return time.Duration(c.MaxLoadMillis) * time.Millisecond
}

func (c *config) previewOptions() preview.Options {
	return preview.Options{
		Title:   fmt.Sprintf("tilerender %dx%d", c.Width, c.Height),
		FPS:     c.FPS,
		Scaler:  c.Scaler,
		Locale:  c.Locale,
		HideHUD: c.HideHUD,
	}
}
