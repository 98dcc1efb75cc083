package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	cfg "github.com/1F47E/go-gifreel/internal/config"
	"github.com/1F47E/go-gifreel/internal/core/progress"
	"github.com/1F47E/go-gifreel/internal/logger"
	"github.com/1F47E/go-gifreel/internal/storage"
	"github.com/1F47E/go-gifreel/internal/video"
)

type Result struct {
	Output     string
	Frames     []string
	FrameCount int
	// covers enumeration and encoding, not extraction
	Elapsed time.Duration
}

// Convert runs the whole pipeline:
// 1. extract frames from video with ffmpeg into a scoped temp dir
// 2. enumerate frame1..frameN, stop at the first missing index
// 3. encode the frames into a gif with gifski
func (c *Core) Convert(o cfg.Options) (Result, error) {
	log := logger.ForRun().WithField("scope", "core convert")

	if err := checkPaths(o); err != nil {
		return Result{}, stageErr(StageSetup, "", err, nil)
	}

	log.Info("Starting conversion...")
	framesDir, err := storage.CreateFramesDir(c.env.TmpDir)
	if err != nil {
		return Result{}, stageErr(StageSetup, "", fmt.Errorf("%w: %w", ErrIO, err), nil)
	}
	if o.KeepFrames {
		log.Infof("Keeping frames in %s", framesDir)
	} else {
		defer func() {
			if err := storage.Cleanup(framesDir); err != nil {
				log.Warnf("Cannot remove frames dir %s: %v", framesDir, err)
			}
		}()
	}
	log.Debugf("Frames dir: %s", framesDir)

	if err := c.framesExtract(o, framesDir); err != nil {
		return Result{}, err
	}
	log.Info("Frame extraction completed. Processing frames with gifski...")

	start := time.Now()

	frames, err := c.framesCollect(o, framesDir)
	if err != nil {
		return Result{}, err
	}
	log.Infof("Total frames to process: %d", len(frames))

	log.Info("Converting frames to GIF using gifski...")
	if err := c.framesEncode(o, frames); err != nil {
		return Result{}, err
	}

	res := Result{
		Output:     o.Output,
		Frames:     frames,
		FrameCount: len(frames),
		Elapsed:    time.Since(start),
	}
	log.Infof("GIF creation completed! Processed %d frames in %.2fs", res.FrameCount, res.Elapsed.Seconds())
	return res, nil
}

func checkPaths(o cfg.Options) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	info, err := os.Stat(o.Input)
	if err != nil {
		return fmt.Errorf("%w: input %s: %w", ErrInvalidInput, o.Input, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: input %s is not a regular file", ErrInvalidInput, o.Input)
	}
	outDir := filepath.Dir(o.Output)
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: output directory %s does not exist", ErrInvalidInput, outDir)
	}
	return nil
}

func (c *Core) framesExtract(o cfg.Options, framesDir string) error {
	log := logger.Log.WithField("scope", "core extract")
	log.Info("Extracting frames with ffmpeg...")

	tail := video.NewTail(cfg.DiagnosticsTail)
	args := video.ExtractArgs(o.Input, o.FPS, o.Width, storage.FramePattern(framesDir))
	err := video.ExtractFrames(c.ctx, c.runner, c.env.FFmpegBin, args, func(line string) {
		tail.Add(line)
		fmt.Fprintf(c.out, "ffmpeg: %s\n", line)
	})
	if err != nil {
		return stageErr(StageExtract, c.env.FFmpegBin, err, tail.Lines())
	}
	return nil
}

func (c *Core) framesCollect(o cfg.Options, framesDir string) ([]string, error) {
	log := logger.Log.WithField("scope", "core enumerate")

	frames, err := storage.ScanFrames(framesDir)
	if err != nil {
		return nil, stageErr(StageEnumerate, "", fmt.Errorf("%w: %w", ErrIO, err), nil)
	}

	gap, err := storage.FindGap(framesDir, len(frames))
	if err != nil {
		return nil, stageErr(StageEnumerate, "", fmt.Errorf("%w: %w", ErrIO, err), nil)
	}
	if len(frames) == 0 {
		if gap > 0 {
			return nil, stageErr(StageEnumerate, "", fmt.Errorf("%w: first frame missing, found frame %d", ErrNoFrames, gap), nil)
		}
		return nil, stageErr(StageEnumerate, "", ErrNoFrames, nil)
	}
	if gap > 0 {
		if !o.AllowGaps {
			return nil, stageErr(StageEnumerate, "",
				fmt.Errorf("%w: frame %d missing, found frame %d", ErrFrameGap, len(frames)+1, gap), nil)
		}
		log.Warnf("Frame %d missing, using the first %d frames only", len(frames)+1, len(frames))
	}
	return frames, nil
}

func (c *Core) framesEncode(o cfg.Options, frames []string) error {
	log := logger.Log.WithField("scope", "core encode")

	spinner := progress.Start(c.out, "Encoding... ", c.progress)
	defer spinner.Stop()

	tail := video.NewTail(cfg.DiagnosticsTail)
	args := video.EncodeArgs(o.Quality, o.FPS, o.Width, o.Output, frames)
	err := video.EncodeFrames(c.ctx, c.runner, c.env.GifskiBin, args, func(line string) {
		tail.Add(line)
		log.Debugf("gifski: %s", line)
	})
	if err != nil {
		return stageErr(StageEncode, c.env.GifskiBin, err, tail.Lines())
	}
	return nil
}
