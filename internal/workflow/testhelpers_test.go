package workflow_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"whisperstudio/internal/config"
	"whisperstudio/internal/document"
	"whisperstudio/internal/history"
	"whisperstudio/internal/media/audio"
	"whisperstudio/internal/runs"
	"whisperstudio/internal/services"
	"whisperstudio/internal/services/whispercpp"
	"whisperstudio/internal/testsupport"
	"whisperstudio/internal/transcript"
	"whisperstudio/internal/workflow"
)

type fakeEngine struct {
	binary string
	model  string
	failOn int
	texts  map[int]string
	panics bool
	done   func(index int)

	mu    sync.Mutex
	calls []int
	opts  []whispercpp.Options
}

func (e *fakeEngine) Binary() string    { return e.binary }
func (e *fakeEngine) ModelPath() string { return e.model }

func (e *fakeEngine) Transcribe(_ context.Context, segment transcript.Segment, workDir string, opts whispercpp.Options) ([]transcript.Artifact, error) {
	e.mu.Lock()
	e.calls = append(e.calls, segment.Index)
	e.opts = append(e.opts, opts)
	e.mu.Unlock()

	if e.panics {
		panic("engine exploded")
	}
	if e.failOn >= 0 && segment.Index == e.failOn {
		toolErr := &services.ToolError{Command: "whisper-cli", ExitCode: 3, Output: "failed to load model", Err: fmt.Errorf("exit status 3")}
		return nil, &services.EngineError{SegmentIndex: segment.Index, Message: "failed to load model", Err: toolErr}
	}

	base := filepath.Join(workDir, transcript.OutputBase(segment.Index))
	var artifacts []transcript.Artifact
	if text, ok := e.texts[segment.Index]; ok {
		if err := os.WriteFile(base+".txt", []byte(text), 0o644); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, transcript.Artifact{SegmentIndex: segment.Index, Kind: transcript.KindText, Path: base + ".txt"})
	}
	if opts.Subtitles {
		if err := os.WriteFile(base+".srt", []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n"), 0o644); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, transcript.Artifact{SegmentIndex: segment.Index, Kind: transcript.KindSubtitle, Path: base + ".srt"})
	}
	if e.done != nil {
		e.done(segment.Index)
	}
	return artifacts, nil
}

func (e *fakeEngine) Calls() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.calls...)
}

type fakeNormalizer struct {
	err    error
	inputs []string
}

func (n *fakeNormalizer) Normalize(_ context.Context, input, workDir string) (string, error) {
	n.inputs = append(n.inputs, input)
	if n.err != nil {
		return "", n.err
	}
	dest := filepath.Join(workDir, audio.NormalizedFileName)
	if err := os.WriteFile(dest, []byte("RIFF"), 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

type fakeProber struct{ seconds float64 }

func (p fakeProber) Duration(context.Context, string) float64 { return p.seconds }

type fakeResolver struct {
	urls []string
	err  error
}

func (r *fakeResolver) Resolve(_ context.Context, rawURL, workDir string) (string, error) {
	r.urls = append(r.urls, rawURL)
	if r.err != nil {
		return "", r.err
	}
	dest := filepath.Join(workDir, "remote_audio.m4a")
	if err := os.WriteFile(dest, []byte("media"), 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

type fakeRenderer struct {
	texts []string
	err   error
}

func (d *fakeRenderer) Render(text, workDir string) (document.RenderResult, error) {
	d.texts = append(d.texts, text)
	if d.err != nil {
		return document.RenderResult{}, d.err
	}
	path := filepath.Join(workDir, document.FileName)
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		return document.RenderResult{}, err
	}
	return document.RenderResult{Path: path, Pages: 1}, nil
}

// cutRunner stands in for ffmpeg when splitting: it creates the output file
// named by the last argument.
func cutRunner() services.CommandRunner {
	return services.CommandRunnerFunc(func(_ context.Context, _ string, args ...string) (services.CommandResult, error) {
		dest := args[len(args)-1]
		return services.CommandResult{}, os.WriteFile(dest, []byte("chunk"), 0o644)
	})
}

type harness struct {
	cfg        *config.Config
	engine     *fakeEngine
	normalizer *fakeNormalizer
	resolver   *fakeResolver
	renderer   *fakeRenderer
	store      *history.Store
	tracker    *history.Tracker
	runner     *workflow.Runner
	media      string
}

type harnessOption func(*harness, *[]workflow.Option)

func withDuration(seconds float64) harnessOption {
	return func(_ *harness, opts *[]workflow.Option) {
		*opts = append(*opts, workflow.WithProber(fakeProber{seconds: seconds}))
	}
}

func withClock(start time.Time) harnessOption {
	return func(h *harness, opts *[]workflow.Option) {
		var mu sync.Mutex
		now := start
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(time.Second)
			return now
		}
		*opts = append(*opts,
			workflow.WithRunManager(runs.NewManager(h.cfg.Paths.OutputDir, runs.WithClock(clock))),
			workflow.WithClock(clock),
		)
	}
}

func newHarness(t *testing.T, cfgOpts []testsupport.ConfigOption, opts ...harnessOption) *harness {
	t.Helper()

	cfgOpts = append([]testsupport.ConfigOption{testsupport.WithModelFile(), testsupport.WithStubbedBinaries("whisper-cli")}, cfgOpts...)
	cfg := testsupport.NewConfig(t, cfgOpts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	media := filepath.Join(testsupport.BaseDir(cfg), "meeting.mp4")
	testsupport.WriteFile(t, media, 128)

	h := &harness{
		cfg:        cfg,
		engine:     &fakeEngine{binary: cfg.Engine.Binary, model: cfg.Engine.ModelPath, failOn: -1, texts: map[int]string{0: "hello world"}},
		normalizer: &fakeNormalizer{},
		resolver:   &fakeResolver{},
		renderer:   &fakeRenderer{},
		store:      store,
		tracker:    history.NewTracker(),
		media:      media,
	}
	wfOpts := []workflow.Option{
		workflow.WithEngine(h.engine),
		workflow.WithNormalizer(h.normalizer),
		workflow.WithProber(fakeProber{seconds: 600}),
		workflow.WithSplitter(audio.Splitter{Runner: cutRunner(), MaxSegment: cfg.MaxSegmentDuration()}),
		workflow.WithResolver(h.resolver),
		workflow.WithRenderer(h.renderer),
		workflow.WithStore(store),
		workflow.WithTracker(h.tracker),
	}
	for _, opt := range opts {
		opt(h, &wfOpts)
	}
	h.runner = workflow.NewRunner(cfg, nil, wfOpts...)
	return h
}

func runDirs(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read output root: %v", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}
