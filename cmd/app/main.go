package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	cfg "github.com/1F47E/go-gifreel/internal/config"
	"github.com/1F47E/go-gifreel/internal/core"
	"github.com/1F47E/go-gifreel/internal/logger"
	"github.com/1F47E/go-gifreel/internal/video"
)

var log = logger.Log

func newApp(ctx context.Context, env *cfg.Env) *cli.App {
	app := cli.NewApp()
	app.Name = "gifreel"
	app.Usage = "A video to gif converter (ffmpeg + gifski)"
	app.UsageText = "gifreel [command] [flags] input [output]"
	app.HideVersion = true
	app.Commands = []cli.Command{
		{
			Name:      "convert",
			Aliases:   []string{"c"},
			Usage:     "Convert a video into an animated gif",
			ArgsUsage: "input [output]",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "fps, f", Value: cfg.DefaultFPS, Usage: "frames per second to sample and play back"},
				cli.IntFlag{Name: "width, w", Value: cfg.DefaultWidth, Usage: "output width in pixels, height keeps aspect ratio"},
				cli.IntFlag{Name: "quality, q", Value: cfg.DefaultQuality, Usage: "gifski quality 1-100"},
				cli.BoolFlag{Name: "keep-frames", Usage: "keep extracted frames after the run"},
				cli.BoolFlag{Name: "allow-gaps", Usage: "encode the frames before a missing index instead of failing"},
				cli.BoolFlag{Name: "no-progress", Usage: "disable the encoding spinner"},
				cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
			},
			Action: func(c *cli.Context) error {
				opts, err := getOptions(c)
				if err != nil {
					return err
				}
				if c.Bool("debug") {
					logger.SetDebug(true)
				}
				progress := !env.NoProgress && !c.Bool("no-progress") && logger.IsTerminal(os.Stdout)
				_, err = core.NewCore(ctx, env, core.WithProgress(progress)).Convert(opts)
				if err != nil {
					reportDiagnostics(err)
				}
				return err
			},
		},
		{
			Name:    "check",
			Aliases: []string{"k"},
			Usage:   "Check that ffmpeg and gifski can be launched",
			Action: func(c *cli.Context) error {
				return checkTools(ctx, env, video.ExecRunner{})
			},
		},
	}
	return app
}

func getOptions(c *cli.Context) (cfg.Options, error) {
	input := c.Args().Get(0)
	if input == "" {
		return cfg.Options{}, fmt.Errorf("Input filename is required")
	}
	if c.NArg() > 2 {
		return cfg.Options{}, fmt.Errorf("Too many arguments: %s", strings.Join(c.Args()[2:], " "))
	}
	output := c.Args().Get(1)
	if output == "" {
		output = outputFor(input)
	}
	opts := cfg.DefaultOptions()
	opts.Input = input
	opts.Output = output
	if c.IsSet("fps") {
		opts.FPS = c.Int("fps")
	}
	if c.IsSet("width") {
		opts.Width = c.Int("width")
	}
	if c.IsSet("quality") {
		opts.Quality = c.Int("quality")
	}
	opts.KeepFrames = c.Bool("keep-frames")
	opts.AllowGaps = c.Bool("allow-gaps")
	if err := opts.Validate(); err != nil {
		return cfg.Options{}, err
	}
	return opts, nil
}

// in.mp4 -> in.gif, next to the input
func outputFor(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + cfg.OutputExt
}

// ffmpeg output is streamed live, gifski output is only kept for errors
func reportDiagnostics(err error) {
	var se *core.StageError
	if !errors.As(err, &se) || se.Stage != core.StageEncode {
		return
	}
	for _, line := range se.Diagnostics {
		log.Warnf("gifski: %s", line)
	}
}

func checkTools(ctx context.Context, env *cfg.Env, r video.Runner) error {
	tools := []struct {
		bin  string
		flag string
	}{
		{env.FFmpegBin, "-version"},
		{env.GifskiBin, "--version"},
	}
	var failed []string
	for _, t := range tools {
		path, err := exec.LookPath(t.bin)
		if err != nil {
			log.Errorf("%s not found", t.bin)
			failed = append(failed, t.bin)
			continue
		}
		v, err := video.ToolVersion(ctx, r, path, t.flag)
		if err != nil {
			log.Errorf("%s found at %s but %s failed: %v", t.bin, path, t.flag, err)
			failed = append(failed, t.bin)
			continue
		}
		log.Infof("%s: %s (%s)", t.bin, v, path)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", video.ErrToolNotFound, strings.Join(failed, ", "))
	}
	return nil
}

func main() {
	env, err := cfg.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.SetDebug(env.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = newApp(ctx, env).Run(os.Args)
	if err != nil {
		stop()
		log.Fatal(err)
	}
}
