package workflow

import (
	"context"
	"log/slog"
	"time"

	"whisperstudio/internal/config"
	"whisperstudio/internal/document"
	"whisperstudio/internal/history"
	"whisperstudio/internal/localize"
	"whisperstudio/internal/logging"
	"whisperstudio/internal/media/audio"
	"whisperstudio/internal/media/ffprobe"
	"whisperstudio/internal/runs"
	"whisperstudio/internal/services"
	"whisperstudio/internal/services/whispercpp"
	"whisperstudio/internal/services/ytdlp"
	"whisperstudio/internal/transcript"
)

// Engine recognizes one segment at a time.
type Engine interface {
	Transcribe(ctx context.Context, segment transcript.Segment, workDir string, opts whispercpp.Options) ([]transcript.Artifact, error)
	Binary() string
	ModelPath() string
}

// DurationProber measures media duration; 0 means unknown.
type DurationProber interface {
	Duration(ctx context.Context, path string) float64
}

// AudioNormalizer converts any input into the canonical WAV inside workDir.
type AudioNormalizer interface {
	Normalize(ctx context.Context, input, workDir string) (string, error)
}

// AudioSplitter cuts canonical audio into bounded segments.
type AudioSplitter interface {
	Split(ctx context.Context, audioPath, workDir string, totalSeconds float64) ([]transcript.Segment, error)
}

// SourceResolver downloads remote media into workDir.
type SourceResolver interface {
	Resolve(ctx context.Context, rawURL, workDir string) (string, error)
}

// DocumentRenderer exports the transcript as a document inside workDir.
type DocumentRenderer interface {
	Render(text, workDir string) (document.RenderResult, error)
}

// Runner executes transcription requests. It is safe for concurrent use;
// each request owns its run directory.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	engine    Engine
	prober    DurationProber
	normalize AudioNormalizer
	splitter  AudioSplitter
	resolver  SourceResolver
	renderer  DocumentRenderer
	runs      *runs.Manager
	tracker   *history.Tracker
	store     *history.Store
	localizer *localize.Localizer
	clock     func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithEngine replaces the recognizer.
func WithEngine(engine Engine) Option {
	return func(r *Runner) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithProber replaces the duration prober.
func WithProber(prober DurationProber) Option {
	return func(r *Runner) {
		if prober != nil {
			r.prober = prober
		}
	}
}

// WithNormalizer replaces the audio normalizer.
func WithNormalizer(n AudioNormalizer) Option {
	return func(r *Runner) {
		if n != nil {
			r.normalize = n
		}
	}
}

// WithSplitter replaces the chunk splitter.
func WithSplitter(s AudioSplitter) Option {
	return func(r *Runner) {
		if s != nil {
			r.splitter = s
		}
	}
}

// WithResolver replaces the remote source resolver.
func WithResolver(res SourceResolver) Option {
	return func(r *Runner) {
		if res != nil {
			r.resolver = res
		}
	}
}

// WithRenderer replaces the document renderer.
func WithRenderer(d DocumentRenderer) Option {
	return func(r *Runner) {
		if d != nil {
			r.renderer = d
		}
	}
}

// WithRunManager replaces the run allocator.
func WithRunManager(m *runs.Manager) Option {
	return func(r *Runner) {
		if m != nil {
			r.runs = m
		}
	}
}

// WithTracker shares an existing recent-runs tracker.
func WithTracker(t *history.Tracker) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracker = t
		}
	}
}

// WithStore persists every run attempt to the ledger.
func WithStore(s *history.Store) Option {
	return func(r *Runner) {
		r.store = s
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRunner wires the default pipeline for cfg.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeouts := cfg.ToolTimeouts()
	runner := services.ExecRunner{}

	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "workflow"),
		engine: whispercpp.NewService(whispercpp.Config{
			Binary:    cfg.Engine.Binary,
			ModelPath: cfg.Engine.ModelPath,
			Threads:   cfg.Engine.Threads,
			Timeout:   timeouts.Recognize,
		}, logger),
		prober: ffprobe.Prober{
			Binary:  cfg.Tools.FFprobe,
			Runner:  runner,
			Timeout: timeouts.Probe,
		},
		normalize: audio.Normalizer{
			FFmpeg:  cfg.Tools.FFmpeg,
			Runner:  runner,
			Timeout: timeouts.Transcode,
			Logger:  logger,
		},
		splitter: audio.Splitter{
			FFmpeg:     cfg.Tools.FFmpeg,
			Runner:     runner,
			Timeout:    timeouts.Split,
			MaxSegment: cfg.MaxSegmentDuration(),
			Logger:     logger,
		},
		resolver: ytdlp.Resolver{
			Binary:  cfg.Tools.YTDLP,
			Runner:  runner,
			Timeout: timeouts.Download,
			Logger:  logger,
		},
		renderer: &document.Renderer{
			Title:       cfg.Document.Title,
			LogoPath:    cfg.Document.LogoPath,
			FontRegular: cfg.Document.FontRegular,
			FontBold:    cfg.Document.FontBold,
			WrapWidth:   cfg.Document.WrapWidth,
			Logger:      logger,
		},
		runs:      runs.NewManager(cfg.Paths.OutputDir, runs.WithLogger(logger)),
		tracker:   history.NewTracker(),
		localizer: localize.New(cfg.UI.Locale),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History returns the recent-runs snapshot, newest first.
func (r *Runner) History() []history.Entry {
	return r.tracker.Snapshot()
}

// Tracker exposes the shared recent-runs tracker.
func (r *Runner) Tracker() *history.Tracker {
	return r.tracker
}

// Localizer returns the message catalog used for results.
func (r *Runner) Localizer() *localize.Localizer {
	return r.localizer
}

// Runs returns the run allocator.
func (r *Runner) Runs() *runs.Manager {
	return r.runs
}

// Store returns the run ledger, or nil when none is attached.
func (r *Runner) Store() *history.Store {
	return r.store
}
