package progress

import (
	"log/slog"
	"math"
	"sync"

	"whisperstudio/internal/logging"
)

// Reporter receives progress updates. Fractions are in [0, 1].
type Reporter interface {
	Report(fraction float64, description string)
}

// Event is one progress update.
type Event struct {
	Fraction    float64 `json:"fraction"`
	Description string  `json:"description"`
}

// Func adapts a function to Reporter.
type Func func(fraction float64, description string)

// Report implements Reporter.
func (f Func) Report(fraction float64, description string) {
	if f != nil {
		f(fraction, description)
	}
}

// Nop discards every update.
type Nop struct{}

// Report implements Reporter.
func (Nop) Report(float64, string) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}

// Monotonic clamps fractions into [0, 1] and never lets them decrease.
type Monotonic struct {
	next Reporter

	mu   sync.Mutex
	last float64
}

// NewMonotonic wraps r.
func NewMonotonic(r Reporter) *Monotonic {
	return &Monotonic{next: OrNop(r)}
}

// Report implements Reporter.
func (m *Monotonic) Report(fraction float64, description string) {
	m.mu.Lock()
	if math.IsNaN(fraction) {
		fraction = m.last
	}
	fraction = math.Max(0, math.Min(1, fraction))
	if fraction < m.last {
		fraction = m.last
	}
	m.last = fraction
	m.mu.Unlock()
	m.next.Report(fraction, description)
}

// Last returns the most recent reported fraction.
func (m *Monotonic) Last() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Multi fans updates out to every non-nil reporter.
func Multi(reporters ...Reporter) Reporter {
	filtered := make([]Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			filtered = append(filtered, r)
		}
	}
	return multi(filtered)
}

type multi []Reporter

func (m multi) Report(fraction float64, description string) {
	for _, r := range m {
		r.Report(fraction, description)
	}
}

// LogSink logs sampled progress at INFO.
type LogSink struct {
	logger  *slog.Logger
	mu      sync.Mutex
	sampler *logging.ProgressSampler
}

// NewLogSink builds a sink that logs at most once per 5% bucket or
// description change.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogSink{logger: logger, sampler: logging.NewProgressSampler(0.05)}
}

// Report implements Reporter.
func (s *LogSink) Report(fraction float64, description string) {
	s.mu.Lock()
	should := s.sampler.ShouldLog(fraction, description)
	s.mu.Unlock()
	if !should {
		return
	}
	s.logger.Info("progress",
		logging.Float64("fraction", math.Round(fraction*1000)/1000),
		logging.String("description", description),
	)
}

// Recorder keeps every update in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report implements Reporter.
func (r *Recorder) Report(fraction float64, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Fraction: fraction, Description: description})
}

// Events returns a copy of the recorded updates.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// SegmentFraction interpolates progress for segment index of count over the
// recognition band [0.1, 0.9].
func SegmentFraction(index, count int) float64 {
	if count <= 0 {
		count = 1
	}
	return RecognizeStart + (RecognizeEnd-RecognizeStart)*float64(index)/float64(count)
}

// Stage milestones.
const (
	Start          = 0.01
	Download       = 0.05
	Normalized     = 0.1
	RecognizeStart = 0.1
	RecognizeEnd   = 0.9
	Finalize       = 0.95
	Document       = 0.97
	Done           = 1.0
)
