package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobState is the lifecycle of an API job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// JobRequest is the body of POST /api/jobs.
type JobRequest struct {
	MediaPath  string `json:"mediaPath,omitempty"`
	URL        string `json:"url,omitempty"`
	Language   string `json:"language,omitempty"`
	Subtitles  bool   `json:"subtitles"`
	Structured bool   `json:"structured"`
	Document   bool   `json:"document"`
}

// Job describes a submitted transcription in a transport-friendly format.
type Job struct {
	ID          string      `json:"id"`
	State       JobState    `json:"state"`
	Progress    JobProgress `json:"progress"`
	SubmittedAt string      `json:"submittedAt"`
	FinishedAt  string      `json:"finishedAt,omitempty"`
	Result      *JobResult  `json:"result,omitempty"`
}

// JobProgress is the latest progress update of a job.
type JobProgress struct {
	Fraction    float64 `json:"fraction"`
	Description string  `json:"description"`
}

// JobResult mirrors the workflow result with download links for artifacts.
type JobResult struct {
	RunID           string         `json:"runId,omitempty"`
	Source          string         `json:"source"`
	Language        string         `json:"language,omitempty"`
	Transcript      string         `json:"transcript"`
	Display         string         `json:"display"`
	Text            *ArtifactLink  `json:"text,omitempty"`
	Subtitles       *ArtifactLink  `json:"subtitles,omitempty"`
	Structured      *ArtifactLink  `json:"structured,omitempty"`
	Document        *ArtifactLink  `json:"document,omitempty"`
	Artifacts       []ArtifactLink `json:"artifacts,omitempty"`
	SegmentCount    int            `json:"segmentCount"`
	DurationSeconds float64        `json:"durationSeconds"`
	Estimate        string         `json:"estimate,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	History         []HistoryEntry `json:"history"`
	Message         string         `json:"message"`
	ErrorKind       string         `json:"errorKind,omitempty"`
}

// ArtifactLink names a run file and where to download it.
type ArtifactLink struct {
	Name    string `json:"name"`
	Kind    string `json:"kind,omitempty"`
	Segment int    `json:"segment"`
	URL     string `json:"url"`
}

// HistoryEntry is one line of the recent-runs list.
type HistoryEntry struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	RunID     string `json:"runId"`
	Line      string `json:"line"`
}

// RunRecord is one row of the persistent run ledger.
type RunRecord struct {
	RunID           string   `json:"runId"`
	Origin          string   `json:"origin"`
	Reference       string   `json:"reference"`
	Status          string   `json:"status"`
	Language        string   `json:"language,omitempty"`
	DurationSeconds float64  `json:"durationSeconds"`
	SegmentCount    int      `json:"segmentCount"`
	Artifacts       int      `json:"artifacts"`
	Document        string   `json:"document,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	ErrorKind       string   `json:"errorKind,omitempty"`
	ErrorMessage    string   `json:"errorMessage,omitempty"`
	StartedAt       string   `json:"startedAt"`
	FinishedAt      string   `json:"finishedAt,omitempty"`
}

// HistoryResponse is the payload of GET /api/history.
type HistoryResponse struct {
	Recent []HistoryEntry `json:"recent"`
	Runs   []RunRecord    `json:"runs,omitempty"`
}

// RunFilesResponse lists the files of one run directory.
type RunFilesResponse struct {
	RunID string         `json:"runId"`
	Files []ArtifactLink `json:"files"`
}

// JobListResponse wraps the known jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// SubmitResponse acknowledges a submitted job.
type SubmitResponse struct {
	ID     string `json:"id"`
	Events string `json:"events"`
}

// HealthResponse is the payload of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Jobs   int    `json:"activeJobs"`
}
