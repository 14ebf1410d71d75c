package inbox

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"whisperstudio/internal/config"
	"whisperstudio/internal/logging"
	"whisperstudio/internal/progress"
	"whisperstudio/internal/services"
	"whisperstudio/internal/workflow"
)

var mediaExtensions = map[string]struct{}{
	".aac": {}, ".aiff": {}, ".avi": {}, ".flac": {}, ".m4a": {}, ".m4v": {},
	".mkv": {}, ".mov": {}, ".mp3": {}, ".mp4": {}, ".mpeg": {}, ".mpg": {},
	".oga": {}, ".ogg": {}, ".opus": {}, ".wav": {}, ".webm": {}, ".wma": {},
}

var partialSuffixes = []string{".tmp", ".part", ".crdownload", ".partial"}

// IsMedia reports whether name looks like a finished media file.
func IsMedia(name string) bool {
	base := filepath.Base(name)
	if base == "" || strings.HasPrefix(base, ".") {
		return false
	}
	lower := strings.ToLower(base)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	_, ok := mediaExtensions[filepath.Ext(lower)]
	return ok
}

// Transcriber runs one transcription request.
type Transcriber interface {
	Transcribe(ctx context.Context, req workflow.Request, reporter progress.Reporter) (*workflow.Result, error)
}

// Watcher feeds media files from Dir to a Transcriber.
type Watcher struct {
	Dir         string
	Settle      time.Duration
	Template    workflow.Request
	Transcriber Transcriber
	Logger      *slog.Logger
	// OnResult, when set, is called after every processed file.
	OnResult func(path string, result *workflow.Result, err error)
}

// New builds a watcher from the [inbox] section of cfg.
func New(cfg *config.Config, transcriber Transcriber, logger *slog.Logger) *Watcher {
	return &Watcher{
		Dir:    cfg.Paths.InboxDir,
		Settle: time.Duration(cfg.Inbox.SettleSeconds) * time.Second,
		Template: workflow.Request{
			Language:       cfg.Inbox.Language,
			WantSubtitles:  cfg.Inbox.Subtitles,
			WantStructured: cfg.Inbox.Structured,
			WantDocument:   cfg.Inbox.Document,
		},
		Transcriber: transcriber,
		Logger:      logger,
	}
}

type pendingFile struct {
	lastEvent time.Time
	size      int64
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// Run watches Dir until ctx is cancelled. Cancellation is not an error.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "inbox")
	if w.Transcriber == nil {
		return services.Wrap(services.ErrConfiguration, "inbox", "start", "no transcriber configured", nil)
	}
	dir := strings.TrimSpace(w.Dir)
	if dir == "" {
		return services.Wrap(services.ErrConfiguration, "inbox", "start", "inbox_dir is empty", nil)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "inbox", "start", "inbox directory unavailable", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "inbox", "start", "create watcher", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return services.Wrap(services.ErrConfiguration, "inbox", "start", "watch directory", err)
	}
	logger.Info("watching inbox",
		logging.String(logging.FieldEventType, "inbox_started"),
		logging.String("path", dir),
		logging.Duration("settle", w.settle()),
	)

	jobs := make(chan string)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for path := range jobs {
			w.process(gctx, logger, path)
		}
		return nil
	})
	g.Go(func() error {
		defer close(jobs)
		return w.loop(gctx, logger, dir, watcher, jobs)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (w *Watcher) loop(ctx context.Context, logger *slog.Logger, dir string, watcher *fsnotify.Watcher, jobs chan<- string) error {
	now := time.Now
	pending := make(map[string]*pendingFile)
	processed := make(map[string]fileStamp)
	var queue []string

	if entries, err := os.ReadDir(dir); err == nil {
		for _, entry := range entries {
			if entry.Type().IsRegular() && IsMedia(entry.Name()) {
				pending[filepath.Join(dir, entry.Name())] = &pendingFile{lastEvent: now(), size: -1}
			}
		}
	}

	ticker := time.NewTicker(w.pollInterval())
	defer ticker.Stop()

	for {
		var send chan<- string
		var next string
		if len(queue) > 0 {
			send = jobs
			next = queue[0]
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case send <- next:
			queue = queue[1:]

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsMedia(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				if p, ok := pending[event.Name]; ok {
					p.lastEvent = now()
				} else {
					pending[event.Name] = &pendingFile{lastEvent: now(), size: -1}
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "inbox watcher error", "inbox_watch_error", logging.Error(err))

		case <-ticker.C:
			queue = append(queue, w.settled(pending, processed)...)
		}
	}
}

// settled moves files that stopped changing out of pending and returns them
// in name order.
func (w *Watcher) settled(pending map[string]*pendingFile, processed map[string]fileStamp) []string {
	now := time.Now()
	var ready []string
	for path, p := range pending {
		if now.Sub(p.lastEvent) < w.settle() {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			delete(pending, path)
			continue
		}
		if info.Size() != p.size {
			p.size = info.Size()
			p.lastEvent = now
			continue
		}
		delete(pending, path)
		stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
		if prev, ok := processed[path]; ok && prev == stamp {
			continue
		}
		processed[path] = stamp
		ready = append(ready, path)
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) process(ctx context.Context, logger *slog.Logger, path string) {
	if ctx.Err() != nil {
		return
	}
	req := w.Template
	req.MediaPath = path
	req.URL = ""

	fileLogger := logger.With(logging.String("file", filepath.Base(path)))
	fileLogger.Info("inbox file accepted", logging.String(logging.FieldEventType, "inbox_file_accepted"))

	result, err := w.Transcriber.Transcribe(ctx, req, progress.NewLogSink(fileLogger))
	if err != nil {
		attrs := []logging.Attr{logging.Error(err)}
		if result != nil && result.RunID != "" {
			attrs = append(attrs, logging.RunID(result.RunID))
		}
		logging.WarnWithContext(fileLogger, "inbox transcription failed", "inbox_file_failed", attrs...)
	} else if result != nil {
		fileLogger.Info("inbox transcription complete",
			logging.String(logging.FieldEventType, "inbox_file_completed"),
			logging.RunID(result.RunID),
		)
	}
	if w.OnResult != nil {
		w.OnResult(path, result, err)
	}
}

func (w *Watcher) settle() time.Duration {
	if w.Settle <= 0 {
		return time.Second
	}
	return w.Settle
}

func (w *Watcher) pollInterval() time.Duration {
	interval := w.settle() / 4
	switch {
	case interval < 10*time.Millisecond:
		return 10 * time.Millisecond
	case interval > time.Second:
		return time.Second
	default:
		return interval
	}
}
