package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

var (
	ErrToolNotFound = errors.New("external tool not found")
	ErrToolFailed   = errors.New("external tool failed")
)

// Runner abstracts process execution so the pipeline can be tested without
// ffmpeg or gifski installed.
type Runner interface {
	Run(ctx context.Context, bin string, args []string, onLine func(string)) error
}

// ExecRunner runs real processes. Output lines from both streams are
// delivered to onLine while the process runs; onLine is never called
// concurrently.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, bin string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec
	// a grandchild holding the pipes must not keep Wait blocked forever
	cmd.WaitDelay = waitDelay

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	closeWriters := func() {
		_ = stdoutW.Close()
		_ = stderrW.Close()
	}

	if err := cmd.Start(); err != nil {
		closeWriters()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %s: %v", ErrToolNotFound, bin, err)
		}
		return fmt.Errorf("start %s: %w", bin, err)
	}

	var mu sync.Mutex
	forward := func(line string) {
		if onLine == nil {
			return
		}
		mu.Lock()
		onLine(line)
		mu.Unlock()
	}

	// readers run while the child runs, otherwise a chatty child blocks
	var wg sync.WaitGroup
	wg.Add(2)
	go drain(&wg, stdoutR, forward)
	go drain(&wg, stderrR, forward)

	err := cmd.Wait()
	closeWriters()
	wg.Wait()

	return exitResult(ctx, bin, err)
}

var waitDelay = 5 * time.Second

// exitResult maps the Wait error. A clean exit wins over a context
// cancelled after the child finished.
func exitResult(ctx context.Context, bin string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", bin, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Tool: bin, Code: exitErr.ExitCode()}
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		// exited 0, a leftover child kept the output open
		return nil
	}
	return fmt.Errorf("wait %s: %w", bin, err)
}

// ExitError is returned when a tool ran and exited with a non-zero status.
type ExitError struct {
	Tool string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.Code)
}

func (e *ExitError) Unwrap() error {
	return ErrToolFailed
}

func drain(wg *sync.WaitGroup, r io.Reader, forward func(string)) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLinesCR)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		forward(line)
	}
	// keep reading so the child never blocks on a full pipe
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, r)
	}
}

// scanLinesCR splits on \n or \r. ffmpeg rewrites its stats line with \r.
func scanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
