package core

import (
	"errors"
	"fmt"
	"strings"
)

// Tool launch and exit failures are video.ErrToolNotFound and video.ErrToolFailed.
var (
	ErrNoFrames     = errors.New("no frames were extracted")
	ErrFrameGap     = errors.New("frame sequence has a gap")
	ErrIO           = errors.New("filesystem error")
	ErrInvalidInput = errors.New("invalid input")
)

type Stage string

const (
	StageSetup     Stage = "setup"
	StageExtract   Stage = "extract"
	StageEnumerate Stage = "enumerate"
	StageEncode    Stage = "encode"
)

// StageError names the pipeline stage that failed. Diagnostics holds the
// last output lines of the tool, if one was running.
type StageError struct {
	Stage       Stage
	Tool        string
	Err         error
	Diagnostics []string
}

func (e *StageError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Stage))
	sb.WriteString(" stage failed")
	if e.Tool != "" {
		fmt.Fprintf(&sb, " (%s)", e.Tool)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, tool string, err error, diag []string) *StageError {
	return &StageError{Stage: stage, Tool: tool, Err: err, Diagnostics: diag}
}
