package services

import (
	"errors"
	"fmt"
	"strings"
)

// Failure markers. Every stage error wraps exactly one of these so callers can
// classify it with errors.Is.
var (
	ErrSourceResolution   = errors.New("source resolution failure")
	ErrTranscode          = errors.New("transcode failure")
	ErrSplit              = errors.New("split failure")
	ErrEngine             = errors.New("engine failure")
	ErrRender             = errors.New("render failure")
	ErrRunIDCollision     = errors.New("run id collision")
	ErrEmptyTranscription = errors.New("empty transcription")
	ErrUnknownDuration    = errors.New("unknown duration")
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrTimeout            = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// EngineError reports a recognizer failure for one segment.
type EngineError struct {
	SegmentIndex int
	Message      string
	Err          error
}

func (e *EngineError) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: segment %d: %s", ErrEngine, e.SegmentIndex, msg)
}

// Is lets errors.Is(err, ErrEngine) match engine failures.
func (e *EngineError) Is(target error) bool {
	return target == ErrEngine
}

func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ToolError captures a failed external command along with its raw output.
type ToolError struct {
	Command  string
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if e.Err != nil && e.ExitCode < 0 {
		base = fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		return base + ": " + out
	}
	return base
}

func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Diagnostics returns the raw output of the failing external tool, if the
// error chain carries one.
func Diagnostics(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return strings.TrimSpace(toolErr.Output)
	}
	return ""
}

// IsWarning reports whether err only degrades the result rather than aborting
// the run.
func IsWarning(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrEmptyTranscription) || errors.Is(err, ErrUnknownDuration)
}

// Fatal reports whether err aborts the remainder of a run.
func Fatal(err error) bool {
	return err != nil && !IsWarning(err)
}

// Kind returns a stable classification name for err, used for persistence and
// message lookup.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceResolution):
		return "source_resolution"
	case errors.Is(err, ErrTranscode):
		return "transcode"
	case errors.Is(err, ErrSplit):
		return "split"
	case errors.Is(err, ErrEngine):
		return "engine"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrRunIDCollision):
		return "run_id_collision"
	case errors.Is(err, ErrEmptyTranscription):
		return "empty_transcription"
	case errors.Is(err, ErrUnknownDuration):
		return "unknown_duration"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
