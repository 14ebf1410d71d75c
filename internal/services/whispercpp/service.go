package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	langpkg "whisperstudio/internal/language"
	"whisperstudio/internal/logging"
	"whisperstudio/internal/services"
	"whisperstudio/internal/transcript"
)

// Options selects what one recognition produces.
type Options struct {
	// Language is the raw hint; empty or "auto" lets the engine detect.
	Language string
	// Subtitles requests an .srt artifact.
	Subtitles bool
	// Structured requests a timed .json artifact.
	Structured bool
}

// Kinds returns the artifact kinds opts requests. Plain text is always requested.
func (o Options) Kinds() []transcript.Kind {
	kinds := []transcript.Kind{transcript.KindText}
	if o.Subtitles {
		kinds = append(kinds, transcript.KindSubtitle)
	}
	if o.Structured {
		kinds = append(kinds, transcript.KindStructured)
	}
	return kinds
}

// Service drives whisper-cli over one segment at a time.
type Service struct {
	cfg    Config
	runner services.CommandRunner
	logger *slog.Logger
}

// NewService creates a whisper.cpp service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:    cfg,
		runner: services.ExecRunner{},
		logger: logging.NewComponentLogger(logger, "engine"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner services.CommandRunner) {
	if runner != nil {
		s.runner = runner
	}
}

// Binary returns the configured executable.
func (s *Service) Binary() string {
	return s.cfg.Binary
}

// ModelPath returns the configured model file.
func (s *Service) ModelPath() string {
	return s.cfg.ModelPath
}

// Transcribe runs the engine over segment, writing transcript_NNN.* files into
// workDir. Requested kinds the engine did not produce are simply absent from
// the result. A non-zero exit returns *services.EngineError carrying the
// segment index; files written by earlier segments are untouched.
func (s *Service) Transcribe(ctx context.Context, segment transcript.Segment, workDir string, opts Options) ([]transcript.Artifact, error) {
	if strings.TrimSpace(segment.Path) == "" {
		return nil, &services.EngineError{SegmentIndex: segment.Index, Message: "segment path required"}
	}
	base := filepath.Join(workDir, transcript.OutputBase(segment.Index))
	args := s.BuildArgs(segment.Path, base, opts)

	logger := logging.WithContext(services.WithSegment(ctx, segment.Index), s.logger)
	logger.Info("recognizing segment",
		logging.String("input", segment.Path),
		logging.Float64("duration_seconds", segment.Duration),
		logging.String("language", langpkg.ToISO2(opts.Language)),
	)
	started := time.Now()
	if _, err := services.RunTool(ctx, s.runner, s.cfg.Timeout, s.cfg.Binary, args...); err != nil {
		message := services.Diagnostics(err)
		if message == "" {
			message = err.Error()
		}
		return nil, &services.EngineError{SegmentIndex: segment.Index, Message: message, Err: err}
	}

	artifacts := make([]transcript.Artifact, 0, 3)
	for _, kind := range opts.Kinds() {
		path := base + kind.Extension()
		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logging.WarnWithContext(logger, "artifact stat failed", "artifact_stat_failed",
					logging.String("path", path),
					logging.Error(err),
				)
			}
			continue
		}
		if info.IsDir() {
			continue
		}
		artifacts = append(artifacts, transcript.Artifact{SegmentIndex: segment.Index, Kind: kind, Path: path})
	}
	logger.Info("segment recognized",
		logging.Int("artifacts", len(artifacts)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return artifacts, nil
}

// BuildArgs constructs the whisper-cli arguments for one segment.
func (s *Service) BuildArgs(input, outputBase string, opts Options) []string {
	args := []string{
		"-m", s.cfg.ModelPath,
		"-f", input,
		"-of", outputBase,
		"-otxt",
	}
	if opts.Subtitles {
		args = append(args, "-osrt")
	}
	if opts.Structured {
		args = append(args, "-oj")
	}
	if lang := langpkg.ToISO2(opts.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	if s.cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(s.cfg.Threads))
	}
	return args
}

// ReadText loads a text artifact.
func ReadText(artifact transcript.Artifact) (string, error) {
	if artifact.Kind != transcript.KindText {
		return "", fmt.Errorf("read text: artifact %s is %s", artifact.Name(), artifact.Kind)
	}
	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
