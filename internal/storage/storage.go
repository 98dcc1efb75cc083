// All frame files related functions
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	cfg "github.com/1F47E/go-gifreel/internal/config"
)

// CreateFramesDir makes a fresh directory owned by a single run.
// Empty base means the OS temp dir.
func CreateFramesDir(base string) (string, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return "", fmt.Errorf("create temp base %s: %w", base, err)
		}
	}
	dir, err := os.MkdirTemp(base, cfg.PathFramesDirPrefix)
	if err != nil {
		return "", fmt.Errorf("create frames dir: %w", err)
	}
	return dir, nil
}

func Cleanup(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

// FramePattern is the output template handed to the extractor.
func FramePattern(dir string) string {
	return filepath.Join(dir, cfg.FrameNameTemplate)
}

func FramePath(dir string, idx int) string {
	return filepath.Join(dir, fmt.Sprintf(cfg.FrameNameTemplate, idx))
}

// ScanFrames probes frame1, frame2, ... and stops at the first missing index.
// Result is in ascending index order. Unrelated files in dir are ignored.
func ScanFrames(dir string) ([]string, error) {
	frames := make([]string, 0)
	for idx := cfg.FrameFirstIndex; ; idx++ {
		path := FramePath(dir, idx)
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", path, err)
		}
		if info.IsDir() {
			break
		}
		frames = append(frames, path)
	}
	return frames, nil
}

// FindGap reports the lowest frame index above count+1 present in dir,
// i.e. a frame that ScanFrames skipped because an earlier index was missing.
// Returns 0 when the frame set is contiguous.
func FindGap(dir string, count int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("list frames dir: %w", err)
	}
	lowest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		idx, ok := FrameIndex(entry.Name())
		if !ok || idx <= count+1 {
			continue
		}
		if lowest == 0 || idx < lowest {
			lowest = idx
		}
	}
	return lowest, nil
}

// FrameIndex parses the index out of a frame file name.
func FrameIndex(name string) (int, bool) {
	prefix, suffix, found := strings.Cut(cfg.FrameNameTemplate, "%d")
	if !found {
		return 0, false
	}
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	// ffmpeg writes %d unpadded, frame007.png is not ours
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return idx, true
}
