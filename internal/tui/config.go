package tui

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/tui/themes"
)

// Threshold limits and step for interactive adjustment.
const (
	MinThreshold  = 60
	MaxThreshold  = 95
	ThresholdStep = 5
)

// Config holds TUI configuration.
type Config struct {
	Context   context.Context
	Theme     themes.Theme
	Logger    *slog.Logger
	Now       func() time.Time
	ExportDir string
	Width     int
	Height    int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Context:   context.Background(),
		Theme:     themes.Default,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       time.Now,
		ExportDir: ".",
		Width:     120,
		Height:    30,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithExportDir sets where the CSV bundle is written.
func WithExportDir(dir string) Option {
	return func(c *Config) {
		c.ExportDir = dir
	}
}

// WithLogger sets the logger handed to the engine on re-runs.
// The default discards output so logs never land on the alternate screen.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithClock overrides the time source used for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithContext sets the parent context for threshold re-runs, so canceling
// the caller stops a re-run in progress.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}
