package runs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"whisperstudio/internal/logging"
	"whisperstudio/internal/services"
)

const (
	lockFileName   = ".runs.lock"
	lockRetryDelay = 25 * time.Millisecond
)

// ErrNotFound reports an unknown run or file.
var ErrNotFound = errors.New("not found")

// Manager allocates runs under a fixed output root.
type Manager struct {
	root   string
	clock  func() time.Time
	logger *slog.Logger

	mu   sync.Mutex
	lock *flock.Flock
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for identifiers.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager rooted at root.
func NewManager(root string, opts ...Option) *Manager {
	m := &Manager{
		root:   root,
		clock:  time.Now,
		logger: logging.NewNop(),
		lock:   flock.New(filepath.Join(root, lockFileName)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "runs")
	return m
}

// Root returns the output root.
func (m *Manager) Root() string {
	return m.root
}

// Allocate creates a new run directory named by the current second. A second
// allocation within the same second, from this or any other process sharing
// the root, fails fast with services.ErrRunIDCollision.
func (m *Manager) Allocate(ctx context.Context, source Source) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "allocate", "output root", m.root, err)
	}
	ok, err := m.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, services.Wrap(services.ErrRunIDCollision, "allocate", "lock", "", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrRunIDCollision, "allocate", "lock", "lock not acquired", nil)
	}
	defer func() {
		if err := m.lock.Unlock(); err != nil {
			m.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	now := m.clock()
	id := now.Format(IDLayout)
	dir := filepath.Join(m.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, services.Wrap(services.ErrRunIDCollision, "allocate", "mkdir", fmt.Sprintf("run %s already exists", id), nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "allocate", "mkdir", dir, err)
	}

	m.logger.Info("run allocated",
		logging.RunID(id),
		logging.String("source", source.String()),
		logging.String("dir", dir),
	)
	return &Run{ID: id, CreatedAt: now, Source: source, Dir: dir}, nil
}

// ValidID reports whether id has the run identifier shape.
func ValidID(id string) bool {
	if len(id) != len(IDLayout) {
		return false
	}
	_, err := time.Parse(IDLayout, id)
	return err == nil
}

// Dir returns the directory of an existing run.
func (m *Manager) Dir(id string) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	dir := filepath.Join(m.root, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return dir, nil
}

// ResolveFile returns the path of a regular file directly inside a run
// directory. Names that would escape the directory are rejected.
func (m *Manager) ResolveFile(id, name string) (string, error) {
	dir, err := m.Dir(id)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("file %q: %w", name, ErrNotFound)
	}
	path := filepath.Join(dir, name)
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("file %q: %w", name, ErrNotFound)
	}
	return path, nil
}

// Files lists the regular files of a run, sorted by name.
func (m *Manager) Files(id string) ([]string, error) {
	dir, err := m.Dir(id)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list run %s: %w", id, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
