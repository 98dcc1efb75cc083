package video

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/1F47E/go-gifreel/internal/logger"
)

// ExtractArgs builds the ffmpeg call that samples input at fps, scales to
// width keeping aspect ratio and writes numbered frames starting at 1.
func ExtractArgs(input string, fps, width int, pattern string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-i", input,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:-1", fps, width),
		"-start_number", "1",
		pattern,
	}
}

// EncodeArgs builds the gifski call. Frame order defines animation order.
func EncodeArgs(quality, fps, width int, output string, frames []string) []string {
	args := []string{
		"--quality", strconv.Itoa(quality),
		"--fps", strconv.Itoa(fps),
		"--width", strconv.Itoa(width),
		"-o", output,
	}
	return append(args, frames...)
}

// call ffmpeg to decode the video into frames
func ExtractFrames(ctx context.Context, r Runner, bin string, args []string, onLine func(string)) error {
	logger.Log.WithField("scope", "video").Debugf("Running ffmpeg command: %s %s", bin, strings.Join(args, " "))
	return r.Run(ctx, bin, args, onLine)
}

// call gifski to assemble frames into an animation
func EncodeFrames(ctx context.Context, r Runner, bin string, args []string, onLine func(string)) error {
	// frame list can be thousands of paths long, log the flags only
	logger.Log.WithField("scope", "video").Debugf("Running gifski command: %s %s ... (%d args)", bin, strings.Join(args[:min(len(args), 8)], " "), len(args))
	return r.Run(ctx, bin, args, onLine)
}

// ToolVersion runs bin with flag and returns the first non-empty output line.
func ToolVersion(ctx context.Context, r Runner, bin, flag string) (string, error) {
	var first string
	err := r.Run(ctx, bin, []string{flag}, func(line string) {
		if first == "" && strings.TrimSpace(line) != "" {
			first = strings.TrimSpace(line)
		}
	})
	if err != nil {
		return "", err
	}
	return first, nil
}
