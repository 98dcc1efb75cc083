package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Spinner animates an indeterminate bar while an external tool runs.
type Spinner struct {
	bar  *progressbar.ProgressBar
	done chan struct{}
	wg   sync.WaitGroup
}

// Start renders a spinner to w and keeps it moving until Stop.
// A disabled spinner is a no-op.
func Start(w io.Writer, desc string, enabled bool) *Spinner {
	if w == nil {
		w = os.Stdout
	}
	s := &Spinner{
		bar:  progressCreate(w, -1, desc, enabled),
		done: make(chan struct{}),
	}
	_ = s.bar.RenderBlank()

	// setup progress bar async, otherwise it wont animate
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Millisecond * 300)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = s.bar.Add(1) // spin
			case <-s.done:
				return
			}
		}
	}()
	return s
}

// Stop halts the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	s.wg.Wait()
	_ = s.bar.Finish()
}

func progressCreate(w io.Writer, max int, desc string, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]/[reset]",
			SaucerHead:    "[green]/[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
