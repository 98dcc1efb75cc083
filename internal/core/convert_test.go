package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/1F47E/go-gifreel/internal/config"
	"github.com/1F47E/go-gifreel/internal/logger"
	"github.com/1F47E/go-gifreel/internal/storage"
	"github.com/1F47E/go-gifreel/internal/video"
)

type call struct {
	bin  string
	args []string
}

// fakeRunner plays ffmpeg and gifski. ffmpeg writes duration*fps frames
// through the output template, gifski writes the output file.
type fakeRunner struct {
	duration   int
	skip       map[int]bool
	extractErr error
	encodeErr  error
	lines      []string
	calls      []call
}

func (f *fakeRunner) Run(ctx context.Context, bin string, args []string, onLine func(string)) error {
	f.calls = append(f.calls, call{bin: bin, args: append([]string(nil), args...)})
	for _, l := range f.lines {
		onLine(l)
	}
	switch bin {
	case "ffmpeg":
		if f.extractErr != nil {
			return f.extractErr
		}
		var fps int
		for i, a := range args {
			if a == "-vf" {
				_, _ = fmt.Sscanf(args[i+1], "fps=%d,", &fps)
			}
		}
		pattern := args[len(args)-1]
		for i := 1; i <= f.duration*fps; i++ {
			if f.skip[i] {
				continue
			}
			if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte("png"), 0o644); err != nil {
				return err
			}
		}
		return nil
	case "gifski":
		if f.encodeErr != nil {
			return f.encodeErr
		}
		for i, a := range args {
			if a == "-o" {
				return os.WriteFile(args[i+1], []byte("GIF89a"), 0o644)
			}
		}
		return errors.New("no output flag")
	}
	return video.ErrToolNotFound
}

func (f *fakeRunner) called(bin string) int {
	n := 0
	for _, c := range f.calls {
		if c.bin == bin {
			n++
		}
	}
	return n
}

// captureLog records everything written through the global logger.
func captureLog(t *testing.T) *test.Hook {
	t.Helper()
	prev := logger.Log.ReplaceHooks(make(logrus.LevelHooks))
	hook := test.NewLocal(logger.Log)
	t.Cleanup(func() {
		logger.Log.ReplaceHooks(prev)
	})
	return hook
}

func messages(hook *test.Hook) string {
	var sb strings.Builder
	for _, e := range hook.AllEntries() {
		sb.WriteString(e.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

func setup(t *testing.T, r *fakeRunner) (*Core, cfg.Options, *bytes.Buffer) {
	t.Helper()
	work := t.TempDir()
	input := filepath.Join(work, "in.mp4")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0o644))

	env := &cfg.Env{FFmpegBin: "ffmpeg", GifskiBin: "gifski", TmpDir: filepath.Join(work, "tmp")}
	out := &bytes.Buffer{}
	c := NewCore(context.Background(), env, WithRunner(r), WithOutput(out), WithProgress(false))

	o := cfg.DefaultOptions()
	o.Input = input
	o.Output = filepath.Join(work, "out.gif")
	return c, o, out
}

func TestConvertTwoSecondsAtTenFPS(t *testing.T) {
	r := &fakeRunner{duration: 2, lines: []string{"Input #0, mov,mp4", "frame=   20 fps=0.0"}}
	c, o, out := setup(t, r)
	hook := captureLog(t)

	res, err := c.Convert(o)
	require.NoError(t, err)

	logged := messages(hook)
	assert.Contains(t, logged, "Total frames to process: 20")
	assert.Contains(t, logged, "GIF creation completed! Processed 20 frames in ")

	assert.Equal(t, 20, res.FrameCount)
	assert.Len(t, res.Frames, 20)
	assert.GreaterOrEqual(t, res.Elapsed.Seconds(), 0.0)
	assert.Equal(t, o.Output, res.Output)
	assert.FileExists(t, o.Output)

	for i, f := range res.Frames {
		assert.Equal(t, fmt.Sprintf("frame%d.png", i+1), filepath.Base(f))
	}

	require.Len(t, r.calls, 2)
	extract := r.calls[0]
	assert.Equal(t, "ffmpeg", extract.bin)
	assert.Contains(t, strings.Join(extract.args, " "), "-vf fps=10,scale=1280:-1")

	encode := r.calls[1]
	assert.Equal(t, "gifski", encode.bin)
	assert.Equal(t, []string{"--quality", "100", "--fps", "10", "--width", "1280", "-o", o.Output}, encode.args[:8])
	assert.Equal(t, res.Frames, encode.args[8:])

	assert.Contains(t, out.String(), "ffmpeg: Input #0, mov,mp4\n")
}

func TestConvertRemovesFramesDir(t *testing.T) {
	r := &fakeRunner{duration: 1}
	c, o, _ := setup(t, r)

	_, err := c.Convert(o)
	require.NoError(t, err)

	entries, err := os.ReadDir(c.env.TmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertKeepFrames(t *testing.T) {
	r := &fakeRunner{duration: 1}
	c, o, _ := setup(t, r)
	o.KeepFrames = true

	res, err := c.Convert(o)
	require.NoError(t, err)
	for _, f := range res.Frames {
		assert.FileExists(t, f)
	}
}

func TestConvertExtractFailureSkipsEncoder(t *testing.T) {
	r := &fakeRunner{
		duration:   1,
		extractErr: &video.ExitError{Tool: "ffmpeg", Code: 1},
		lines:      []string{"in.mp4: Invalid data found when processing input"},
	}
	c, o, _ := setup(t, r)

	_, err := c.Convert(o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrToolFailed))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageExtract, se.Stage)
	assert.Equal(t, "ffmpeg", se.Tool)
	assert.Equal(t, []string{"in.mp4: Invalid data found when processing input"}, se.Diagnostics)

	assert.Equal(t, 0, r.called("gifski"))
	assert.NoFileExists(t, o.Output)
}

func TestConvertToolNotFound(t *testing.T) {
	r := &fakeRunner{extractErr: fmt.Errorf("%w: ffmpeg", video.ErrToolNotFound)}
	c, o, _ := setup(t, r)

	_, err := c.Convert(o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrToolNotFound))
	stage, ok := stageOf(err)
	assert.True(t, ok)
	assert.Equal(t, StageExtract, stage)
}

func TestConvertNoFrames(t *testing.T) {
	r := &fakeRunner{duration: 0}
	c, o, _ := setup(t, r)

	_, err := c.Convert(o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoFrames))
	stage, _ := stageOf(err)
	assert.Equal(t, StageEnumerate, stage)
	assert.Equal(t, 0, r.called("gifski"))
}

func TestConvertFirstFrameMissing(t *testing.T) {
	r := &fakeRunner{duration: 1, skip: map[int]bool{1: true}}
	c, o, _ := setup(t, r)

	_, err := c.Convert(o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoFrames))
	assert.Equal(t, 0, r.called("gifski"))
}

func TestConvertGapIsFatal(t *testing.T) {
	r := &fakeRunner{duration: 1, skip: map[int]bool{4: true}}
	c, o, _ := setup(t, r)

	_, err := c.Convert(o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrameGap))
	assert.Contains(t, err.Error(), "frame 4 missing")
	assert.Equal(t, 0, r.called("gifski"))
}

func TestConvertGapAllowedTruncates(t *testing.T) {
	r := &fakeRunner{duration: 1, skip: map[int]bool{4: true}}
	c, o, _ := setup(t, r)
	o.AllowGaps = true

	res, err := c.Convert(o)
	require.NoError(t, err)
	assert.Equal(t, 3, res.FrameCount)
	assert.Equal(t, []string{
		storage.FramePath(filepath.Dir(res.Frames[0]), 1),
		storage.FramePath(filepath.Dir(res.Frames[0]), 2),
		storage.FramePath(filepath.Dir(res.Frames[0]), 3),
	}, res.Frames)
}

func TestConvertEncodeFailure(t *testing.T) {
	r := &fakeRunner{
		duration:  1,
		encodeErr: &video.ExitError{Tool: "gifski", Code: 2},
		lines:     []string{"error: out of memory"},
	}
	c, o, _ := setup(t, r)
	hook := captureLog(t)

	res, err := c.Convert(o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrToolFailed))
	assert.Equal(t, Result{}, res)

	logged := messages(hook)
	assert.Contains(t, logged, "Converting frames to GIF using gifski...")
	assert.NotContains(t, logged, "GIF creation completed")
	assert.NotContains(t, logged, "Processed")

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageEncode, se.Stage)
	assert.Equal(t, "encode stage failed (gifski): gifski exited with status 2", se.Error())
}

func TestConvertInvalidInput(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(o *cfg.Options)
	}{
		{name: "missing input", mutate: func(o *cfg.Options) { o.Input = filepath.Join(filepath.Dir(o.Input), "nope.mp4") }},
		{name: "input is dir", mutate: func(o *cfg.Options) { o.Input = filepath.Dir(o.Input) }},
		{name: "output dir missing", mutate: func(o *cfg.Options) { o.Output = filepath.Join(filepath.Dir(o.Output), "x", "out.gif") }},
		{name: "zero fps", mutate: func(o *cfg.Options) { o.FPS = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeRunner{duration: 1}
			c, o, _ := setup(t, r)
			tc.mutate(&o)

			_, err := c.Convert(o)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			stage, _ := stageOf(err)
			assert.Equal(t, StageSetup, stage)
			assert.Empty(t, r.calls)
		})
	}
}

func stageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
