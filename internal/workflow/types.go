package workflow

import (
	"whisperstudio/internal/history"
	"whisperstudio/internal/runs"
	"whisperstudio/internal/transcript"
)

// Request describes one transcription. URL takes precedence over MediaPath.
type Request struct {
	MediaPath      string `json:"media_path,omitempty"`
	URL            string `json:"url,omitempty"`
	Language       string `json:"language,omitempty"`
	WantSubtitles  bool   `json:"subtitles,omitempty"`
	WantStructured bool   `json:"structured,omitempty"`
	WantDocument   bool   `json:"document,omitempty"`
}

// SegmentResult reports what recognition produced for one segment.
type SegmentResult struct {
	transcript.Segment
	Artifacts []transcript.Artifact `json:"artifacts,omitempty"`
	HasText   bool                  `json:"has_text"`
}

// Result is the outcome of Runner.Transcribe. It is returned even when the
// run fails, carrying whatever was produced before the failure.
type Result struct {
	RunID              string                `json:"run_id,omitempty"`
	RunDir             string                `json:"run_dir,omitempty"`
	Source             runs.Source           `json:"source"`
	Language           string                `json:"language,omitempty"`
	Transcript         string                `json:"transcript"`
	Display            string                `json:"display"`
	TextArtifact       string                `json:"text_artifact,omitempty"`
	SubtitleArtifact   string                `json:"subtitle_artifact,omitempty"`
	StructuredArtifact string                `json:"structured_artifact,omitempty"`
	Document           string                `json:"document,omitempty"`
	Artifacts          []transcript.Artifact `json:"artifacts,omitempty"`
	Segments           []SegmentResult       `json:"segments,omitempty"`
	DurationSeconds    float64               `json:"duration_seconds"`
	Estimate           string                `json:"estimate,omitempty"`
	Warnings           []string              `json:"warnings,omitempty"`
	History            []history.Entry       `json:"history"`
	Message            string                `json:"message"`
	ErrorKind          string                `json:"error_kind,omitempty"`
}

// Succeeded reports whether the run completed without a fatal failure.
func (r *Result) Succeeded() bool {
	return r != nil && r.ErrorKind == ""
}
