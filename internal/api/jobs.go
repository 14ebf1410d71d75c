package api

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"whisperstudio/internal/logging"
	"whisperstudio/internal/progress"
	"whisperstudio/internal/services"
	"whisperstudio/internal/workflow"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// Transcriber runs one transcription request.
type Transcriber interface {
	Transcribe(ctx context.Context, req workflow.Request, reporter progress.Reporter) (*workflow.Result, error)
}

// DefaultRetainedJobs bounds how many finished jobs stay queryable.
const DefaultRetainedJobs = 100

type jobEntry struct {
	job  Job
	bus  *EventBus
	done chan struct{}
	// finished orders completed jobs for eviction; zero while active.
	finished uint64
}

// JobOption customises a JobService.
type JobOption func(*JobService)

// WithRetainedJobs keeps at most n finished jobs (and their event buffers).
func WithRetainedJobs(n int) JobOption {
	return func(s *JobService) {
		if n > 0 {
			s.retain = n
		}
	}
}

// WithMediaRoots confines mediaPath submissions to files below the given
// directories. Without roots any readable path is accepted.
func WithMediaRoots(roots ...string) JobOption {
	return func(s *JobService) {
		for _, root := range roots {
			root = strings.TrimSpace(root)
			if root == "" {
				continue
			}
			s.mediaRoots = append(s.mediaRoots, resolvePath(root))
		}
	}
}

// JobService admits transcription jobs and runs them in the background.
// Runs are admitted at most `slots` at a time; the rest wait in state queued.
type JobService struct {
	base        context.Context
	transcriber Transcriber
	logger      *slog.Logger
	slots       *semaphore.Weighted
	clock       func() time.Time
	retain      int
	mediaRoots  []string

	mu          sync.RWMutex
	jobs        map[string]*jobEntry
	finishedSeq uint64
	wg          sync.WaitGroup
}

// NewJobService builds a job service. Jobs inherit base so that cancelling
// it aborts in-flight runs.
func NewJobService(base context.Context, transcriber Transcriber, slots int, logger *slog.Logger, opts ...JobOption) *JobService {
	if base == nil {
		base = context.Background()
	}
	if slots <= 0 {
		slots = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &JobService{
		base:        base,
		transcriber: transcriber,
		logger:      logging.NewComponentLogger(logger, "jobs"),
		slots:       semaphore.NewWeighted(int64(slots)),
		clock:       time.Now,
		retain:      DefaultRetainedJobs,
		jobs:        make(map[string]*jobEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and queues a request, returning the new job.
func (s *JobService) Submit(req JobRequest) (Job, error) {
	req.MediaPath = strings.TrimSpace(req.MediaPath)
	req.URL = strings.TrimSpace(req.URL)
	if req.MediaPath == "" && req.URL == "" {
		return Job{}, services.Wrap(services.ErrValidation, "api", "submit", "mediaPath or url is required", nil)
	}
	if req.URL == "" && !s.mediaAllowed(req.MediaPath) {
		return Job{}, services.Wrap(services.ErrValidation, "api", "submit", "mediaPath is outside the allowed media directories", nil)
	}

	entry := &jobEntry{
		job: Job{
			ID:          uuid.NewString(),
			State:       JobQueued,
			SubmittedAt: formatTime(s.clock()),
		},
		bus:  NewEventBus(0),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.jobs[entry.job.ID] = entry
	s.mu.Unlock()

	entry.bus.Publish(Event{JobID: entry.job.ID, Type: EventStatus, State: JobQueued})
	s.logger.Info("job submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.String("job_id", entry.job.ID),
		logging.String("media_path", req.MediaPath),
		logging.String("url", req.URL),
	)

	s.wg.Add(1)
	go s.run(entry, req)
	return entry.job, nil
}

func (s *JobService) run(entry *jobEntry, req JobRequest) {
	defer s.wg.Done()
	defer close(entry.done)
	defer entry.bus.Close()

	id := entry.job.ID
	ctx := services.WithRequestID(s.base, id)
	if err := s.slots.Acquire(ctx, 1); err != nil {
		err = services.Wrap(services.ErrValidation, "api", "admit", "job cancelled before start", err)
		s.finish(entry, &workflow.Result{Message: err.Error(), ErrorKind: services.Kind(err)}, err)
		return
	}
	defer s.slots.Release(1)

	s.update(entry, func(job *Job) { job.State = JobRunning })
	entry.bus.Publish(Event{JobID: id, Type: EventStatus, State: JobRunning})

	reporter := progress.Func(func(fraction float64, description string) {
		s.update(entry, func(job *Job) {
			job.Progress = JobProgress{Fraction: fraction, Description: description}
		})
		entry.bus.Publish(Event{JobID: id, Type: EventProgress, Fraction: fraction, Description: description})
	})

	result, err := s.transcriber.Transcribe(ctx, workflow.Request{
		MediaPath:      req.MediaPath,
		URL:            req.URL,
		Language:       req.Language,
		WantSubtitles:  req.Subtitles,
		WantStructured: req.Structured,
		WantDocument:   req.Document,
	}, reporter)
	s.finish(entry, result, err)
}

func (s *JobService) finish(entry *jobEntry, result *workflow.Result, err error) {
	state := JobCompleted
	if err != nil {
		state = JobFailed
	}
	converted := FromResult(result)
	s.mu.Lock()
	entry.job.State = state
	entry.job.FinishedAt = formatTime(s.clock())
	entry.job.Result = converted
	s.finishedSeq++
	entry.finished = s.finishedSeq
	s.pruneLocked()
	s.mu.Unlock()
	entry.bus.Publish(Event{JobID: entry.job.ID, Type: EventResult, State: state, Result: converted})

	if err != nil {
		logging.WarnWithContext(s.logger, "job failed", "job_failed",
			logging.String("job_id", entry.job.ID),
			logging.Error(err),
		)
		return
	}
	s.logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.String("job_id", entry.job.ID),
	)
}

func (s *JobService) update(entry *jobEntry, mutate func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&entry.job)
}

// pruneLocked drops the oldest finished jobs beyond the retention limit.
// Subscribers holding an evicted job's bus keep reading it until it closes.
func (s *JobService) pruneLocked() {
	var finished []*jobEntry
	for _, entry := range s.jobs {
		if entry.finished > 0 {
			finished = append(finished, entry)
		}
	}
	if len(finished) <= s.retain {
		return
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].finished < finished[j].finished })
	for _, entry := range finished[:len(finished)-s.retain] {
		delete(s.jobs, entry.job.ID)
	}
}

func (s *JobService) mediaAllowed(path string) bool {
	if len(s.mediaRoots) == 0 {
		return true
	}
	resolved := resolvePath(path)
	for _, root := range s.mediaRoots {
		rel, err := filepath.Rel(root, resolved)
		if err != nil || rel == "." {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// resolvePath returns the absolute, symlink-free form of path. A missing
// file is resolved through its parent directory.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if evaluated, err := filepath.EvalSymlinks(abs); err == nil {
		return evaluated
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}

// Get returns a snapshot of one job.
func (s *JobService) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return entry.job, nil
}

// List returns every known job, newest first.
func (s *JobService) List() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, entry := range s.jobs {
		out = append(out, entry.job)
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubmittedAt == out[j].SubmittedAt {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt > out[j].SubmittedAt
	})
	return out
}

// Active counts queued and running jobs.
func (s *JobService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entry := range s.jobs {
		if entry.job.State == JobQueued || entry.job.State == JobRunning {
			n++
		}
	}
	return n
}

// Events returns the event bus of a job.
func (s *JobService) Events(id string) (*EventBus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return entry.bus, nil
}

// Done returns a channel closed once the job has finished.
func (s *JobService) Done(id string) (<-chan struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return entry.done, nil
}

// Wait blocks until every submitted job has finished or ctx ends.
func (s *JobService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
