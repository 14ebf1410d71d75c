package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"whisperstudio/internal/history"
	langpkg "whisperstudio/internal/language"
	"whisperstudio/internal/localize"
	"whisperstudio/internal/logging"
	"whisperstudio/internal/preflight"
	"whisperstudio/internal/progress"
	"whisperstudio/internal/runs"
	"whisperstudio/internal/services"
	"whisperstudio/internal/services/whispercpp"
	"whisperstudio/internal/transcript"
)

var (
	errNoInput         = errors.New("no file or URL provided")
	errInvalidLanguage = errors.New("unrecognized language")
	errMediaNotFound   = errors.New("media file not found")
)

// run carries the per-request state through the stages.
type run struct {
	req      Request
	source   runs.Source
	language string
	handle   *runs.Run
	result   *Result
	sink     progress.Reporter
	warnings []error
}

// Transcribe executes req end to end. The returned Result is never nil; err
// is the fatal failure, if any, and Result.Message its localized summary.
// Progress is reported to reporter, which may be nil.
func (r *Runner) Transcribe(ctx context.Context, req Request, reporter progress.Reporter) (result *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	started := r.clock()
	state := &run{
		req:    req,
		result: &Result{},
		sink:   progress.NewMonotonic(progress.Multi(progress.OrNop(reporter), progress.NewLogSink(logging.WithContext(ctx, r.logger)))),
	}
	result = state.result

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("transcription panic: %v", rec)
			r.logger.Error("transcription panicked",
				logging.Any("panic", rec),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldEventType, "run_panic"),
			)
		}
		r.finish(ctx, state, started, err)
	}()

	if err = r.prepare(state); err != nil {
		return result, err
	}
	if err = preflight.CheckEngine(r.engine.Binary(), r.engine.ModelPath()); err != nil {
		return result, err
	}

	state.sink.Report(progress.Start, r.localizer.Sprintf(localize.ProgressPreparing))
	state.handle, err = r.runs.Allocate(ctx, state.source)
	if err != nil {
		return result, err
	}
	result.RunID = state.handle.ID
	result.RunDir = state.handle.Dir
	ctx = services.WithRunID(ctx, state.handle.ID)
	r.save(ctx, state, history.StatusRunning, started, nil, nil)

	err = r.execute(ctx, state)
	return result, err
}

// prepare validates the request and derives the source and language.
func (r *Runner) prepare(state *run) error {
	req := state.req
	hint := strings.TrimSpace(req.Language)
	if hint == "" {
		hint = r.cfg.Engine.Language
	}
	language, err := langpkg.Normalize(hint)
	if err != nil {
		return services.Wrap(services.ErrValidation, "request", "language", hint, errInvalidLanguage)
	}
	state.language = language
	state.result.Language = language

	switch {
	case strings.TrimSpace(req.URL) != "":
		state.source = runs.RemoteSource(strings.TrimSpace(req.URL))
	case strings.TrimSpace(req.MediaPath) != "":
		path := strings.TrimSpace(req.MediaPath)
		info, statErr := os.Stat(path)
		if statErr != nil || info.IsDir() {
			return services.Wrap(services.ErrValidation, "request", "media", path, errMediaNotFound)
		}
		state.source = runs.UploadSource(path)
	default:
		return services.Wrap(services.ErrValidation, "request", "", "", errNoInput)
	}
	state.result.Source = state.source
	return nil
}

func (r *Runner) execute(ctx context.Context, state *run) error {
	loc := r.localizer
	workDir := state.handle.Dir
	result := state.result

	input := state.req.MediaPath
	if state.source.Origin == runs.OriginRemote {
		state.sink.Report(progress.Download, loc.Sprintf(localize.ProgressDownloading))
		downloaded, err := r.resolver.Resolve(services.WithStage(ctx, "download"), state.source.Reference, workDir)
		if err != nil {
			return err
		}
		input = downloaded
	}

	state.sink.Report(progress.Download, loc.Sprintf(localize.ProgressExtracting))
	audioPath, err := r.normalize.Normalize(services.WithStage(ctx, "normalize"), input, workDir)
	if err != nil {
		return err
	}

	state.sink.Report(progress.Normalized, loc.Sprintf(localize.ProgressSplitting))
	duration := r.prober.Duration(services.WithStage(ctx, "probe"), audioPath)
	result.DurationSeconds = duration
	if duration <= 0 {
		r.warn(ctx, state, services.Wrap(services.ErrUnknownDuration, "probe", "", "", nil), loc.Sprintf(localize.MsgDurationUnknown))
	}
	result.Estimate = loc.Estimate(duration, r.cfg.Estimate.Factor)

	segments, err := r.splitter.Split(services.WithStage(ctx, "split"), audioPath, workDir, duration)
	if err != nil {
		return err
	}

	opts := whispercpp.Options{
		Language:   state.language,
		Subtitles:  state.req.WantSubtitles,
		Structured: state.req.WantStructured,
	}
	parts := make([]transcript.Part, 0, len(segments))
	recognizeCtx := services.WithStage(ctx, "recognize")
	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			r.assemble(state, parts, false)
			return fmt.Errorf("recognize segment %d: %w", segment.Index, err)
		}
		state.sink.Report(progress.SegmentFraction(i, len(segments)), loc.Sprintf(localize.ProgressSegment, i+1, len(segments)))
		artifacts, err := r.engine.Transcribe(recognizeCtx, segment, workDir, opts)
		if len(artifacts) > 0 {
			state.handle.Track(artifacts...)
		}
		if err != nil {
			r.assemble(state, parts, false)
			return err
		}
		part := transcript.Part{SegmentIndex: segment.Index}
		if text, ok := transcript.Primary(artifacts, transcript.KindText); ok {
			content, readErr := whispercpp.ReadText(text)
			if readErr != nil {
				r.logger.Warn("text artifact unreadable", logging.String("path", text.Path), logging.Error(readErr))
			} else {
				part.Text = content
				part.Present = true
			}
		}
		hasText := part.Present && strings.TrimSpace(part.Text) != ""
		if !hasText {
			r.warn(ctx, state,
				services.Wrap(services.ErrEmptyTranscription, "recognize", "", fmt.Sprintf("segment %d", segment.Index), nil),
				loc.Sprintf(localize.MsgSegmentNoText, segment.Index+1),
			)
		}
		parts = append(parts, part)
		result.Segments = append(result.Segments, SegmentResult{Segment: segment, Artifacts: artifacts, HasText: hasText})
	}
	body := r.assemble(state, parts, true)
	state.sink.Report(progress.Finalize, loc.Sprintf(localize.ProgressFinalizing))

	if state.req.WantDocument {
		state.sink.Report(progress.Document, loc.Sprintf(localize.ProgressDocument))
		rendered, err := r.renderer.Render(body, workDir)
		if err != nil {
			return err
		}
		result.Document = rendered.Path
		for _, note := range rendered.Fallbacks {
			r.logger.Debug("document fallback", logging.String("detail", note))
		}
	}

	state.sink.Report(progress.Done, loc.Sprintf(localize.ProgressDone))
	return nil
}

// assemble joins the text recovered so far into the result and returns the
// display body. A failed run keeps its partial transcript; the empty
// placeholder is only used for complete runs.
func (r *Runner) assemble(state *run, parts []transcript.Part, complete bool) string {
	result := state.result
	result.Transcript = transcript.Aggregate(parts)
	body := result.Transcript
	if body == "" {
		if !complete {
			return ""
		}
		body = r.localizer.Sprintf(localize.MsgEmptyTranscript)
	}
	if result.Estimate != "" {
		result.Display = result.Estimate + "\n\n" + body
	} else {
		result.Display = body
	}
	return body
}

func (r *Runner) warn(ctx context.Context, state *run, err error, message string) {
	state.warnings = append(state.warnings, err)
	state.result.Warnings = append(state.result.Warnings, message)
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "run degraded", services.Kind(err),
		logging.Error(err),
	)
}

// finish fills the artifact references, the message and the history for
// every outcome, then persists the run.
func (r *Runner) finish(ctx context.Context, state *run, started time.Time, err error) {
	result := state.result
	if state.handle != nil {
		result.Artifacts = state.handle.Artifacts()
		if a, ok := transcript.Primary(result.Artifacts, transcript.KindText); ok {
			result.TextArtifact = a.Path
		}
		if a, ok := transcript.Primary(result.Artifacts, transcript.KindSubtitle); ok {
			result.SubtitleArtifact = a.Path
		}
		if a, ok := transcript.Primary(result.Artifacts, transcript.KindStructured); ok {
			result.StructuredArtifact = a.Path
		}
	}

	logger := logging.WithContext(ctx, r.logger)
	if err != nil {
		result.ErrorKind = services.Kind(err)
		result.Message = r.failureMessage(state, err)
		if state.handle != nil {
			r.save(ctx, state, history.StatusFailed, started, err, nil)
		}
		logger.Error("transcription failed",
			logging.String("run_id", result.RunID),
			logging.String("error_kind", result.ErrorKind),
			logging.Error(err),
			logging.String("diagnostics", services.Diagnostics(err)),
			logging.String(logging.FieldEventType, "run_failed"),
		)
		result.History = r.tracker.Snapshot()
		return
	}

	finished := r.clock()
	result.History = r.tracker.Record(history.Entry{
		Timestamp: finished,
		Source:    state.source,
		RunID:     state.handle.ID,
	})
	r.save(ctx, state, history.StatusCompleted, started, nil, &finished)
	if len(result.Warnings) > 0 {
		result.Message = r.localizer.Sprintf(localize.MsgCompletedWarning)
	} else {
		result.Message = r.localizer.Sprintf(localize.MsgCompleted)
	}
	logger.Info("transcription completed",
		logging.String("source", state.source.String()),
		logging.Int("segments", len(result.Segments)),
		logging.Int("artifacts", len(result.Artifacts)),
		logging.Int("warnings", len(result.Warnings)),
		logging.Duration("elapsed", finished.Sub(started)),
		logging.String(logging.FieldEventType, "run_completed"),
	)
}

func (r *Runner) failureMessage(state *run, err error) string {
	loc := r.localizer
	var missing *preflight.MissingError
	switch {
	case errors.As(err, &missing) && missing.Kind == preflight.MissingModel:
		return loc.Sprintf(localize.MsgModelMissing, missing.Path)
	case errors.As(err, &missing):
		return loc.Sprintf(localize.MsgBinaryMissing, missing.Path)
	case errors.Is(err, errNoInput):
		return loc.Sprintf(localize.MsgNoInput)
	case errors.Is(err, errInvalidLanguage):
		return loc.Sprintf(localize.MsgInvalidLanguage, strings.TrimSpace(state.req.Language))
	default:
		return loc.Failure(err)
	}
}

func (r *Runner) save(ctx context.Context, state *run, status history.Status, started time.Time, runErr error, finished *time.Time) {
	if r.store == nil || state.handle == nil {
		return
	}
	result := state.result
	rec := history.Record{
		RunID:           state.handle.ID,
		Source:          state.source,
		Status:          status,
		Language:        state.language,
		DurationSeconds: result.DurationSeconds,
		SegmentCount:    len(result.Segments),
		Artifacts:       state.handle.Artifacts(),
		DocumentPath:    result.Document,
		StartedAt:       started,
		FinishedAt:      finished,
	}
	for _, w := range state.warnings {
		rec.Warnings = append(rec.Warnings, w.Error())
	}
	if runErr != nil {
		now := r.clock()
		rec.FinishedAt = &now
		rec.ErrorKind = services.Kind(runErr)
		rec.ErrorMessage = runErr.Error()
	}
	if err := r.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn("failed to persist run record",
			logging.String("run_id", rec.RunID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from history ledger"),
		)
	}
}
