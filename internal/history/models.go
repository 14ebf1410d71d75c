package history

import (
	"time"

	"whisperstudio/internal/runs"
	"whisperstudio/internal/transcript"
)

// Status is the outcome of a run attempt.
type Status string

// Run statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one persisted run attempt.
type Record struct {
	RunID           string                `json:"run_id"`
	Source          runs.Source           `json:"source"`
	Status          Status                `json:"status"`
	Language        string                `json:"language,omitempty"`
	DurationSeconds float64               `json:"duration_seconds"`
	SegmentCount    int                   `json:"segment_count"`
	Artifacts       []transcript.Artifact `json:"artifacts,omitempty"`
	DocumentPath    string                `json:"document_path,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
	ErrorKind       string                `json:"error_kind,omitempty"`
	ErrorMessage    string                `json:"error_message,omitempty"`
	StartedAt       time.Time             `json:"started_at"`
	FinishedAt      *time.Time            `json:"finished_at,omitempty"`
}

// Entry converts the record into a recent-runs entry stamped at completion.
func (r Record) Entry() Entry {
	ts := r.StartedAt
	if r.FinishedAt != nil {
		ts = *r.FinishedAt
	}
	return Entry{Timestamp: ts, Source: r.Source, RunID: r.RunID}
}

// Elapsed returns the wall time of a finished run.
func (r Record) Elapsed() time.Duration {
	if r.FinishedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
