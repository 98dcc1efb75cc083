package core

import (
	"context"
	"io"
	"os"

	cfg "github.com/1F47E/go-gifreel/internal/config"
	"github.com/1F47E/go-gifreel/internal/video"
)

type Core struct {
	ctx      context.Context
	env      *cfg.Env
	runner   video.Runner
	out      io.Writer
	progress bool
}

type Option func(*Core)

// WithRunner swaps process execution, mainly for tests.
func WithRunner(r video.Runner) Option {
	return func(c *Core) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithOutput sets where tool diagnostics and the spinner are written.
func WithOutput(w io.Writer) Option {
	return func(c *Core) {
		if w != nil {
			c.out = w
		}
	}
}

func WithProgress(enabled bool) Option {
	return func(c *Core) {
		c.progress = enabled
	}
}

func NewCore(ctx context.Context, env *cfg.Env, opts ...Option) *Core {
	if env == nil {
		env = &cfg.Env{FFmpegBin: "ffmpeg", GifskiBin: "gifski"}
	}
	c := &Core{
		ctx:      ctx,
		env:      env,
		runner:   video.ExecRunner{},
		out:      os.Stdout,
		progress: !env.NoProgress,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
