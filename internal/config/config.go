package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultFPS     = 10
	DefaultWidth   = 1280
	DefaultQuality = 100

	// frames are written by ffmpeg and read back by index, starting at 1
	FrameNameTemplate = "frame%d.png"
	FrameFirstIndex   = 1

	// Path
	PathFramesDirPrefix = "gifreel-frames-"
	OutputExt           = ".gif"

	// number of trailing tool output lines kept for error reports
	DiagnosticsTail = 20
)

// Env holds overrides read from the process environment.
type Env struct {
	FFmpegBin  string `env:"GIFREEL_FFMPEG_BIN" envDefault:"ffmpeg"`
	GifskiBin  string `env:"GIFREEL_GIFSKI_BIN" envDefault:"gifski"`
	TmpDir     string `env:"GIFREEL_TMP_DIR"`
	Debug      bool   `env:"GIFREEL_DEBUG" envDefault:"false"`
	NoProgress bool   `env:"GIFREEL_NO_PROGRESS" envDefault:"false"`
}

func Load() (*Env, error) {
	e := &Env{}
	if err := env.Parse(e); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// Options are the per-run conversion settings.
type Options struct {
	Input      string
	Output     string
	FPS        int
	Width      int
	Quality    int
	KeepFrames bool
	AllowGaps  bool
}

func DefaultOptions() Options {
	return Options{
		FPS:     DefaultFPS,
		Width:   DefaultWidth,
		Quality: DefaultQuality,
	}
}

func (o Options) Validate() error {
	if o.Input == "" {
		return errors.New("input path is required")
	}
	if o.Output == "" {
		return errors.New("output path is required")
	}
	if o.FPS <= 0 {
		return fmt.Errorf("fps must be a positive integer, got %d", o.FPS)
	}
	if o.Width <= 0 {
		return fmt.Errorf("width must be a positive integer, got %d", o.Width)
	}
	if o.Quality < 1 || o.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", o.Quality)
	}
	return nil
}
