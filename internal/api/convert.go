package api

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"whisperstudio/internal/history"
	"whisperstudio/internal/transcript"
	"whisperstudio/internal/workflow"
)

// FileURL is the download path of a run file.
func FileURL(runID, name string) string {
	return fmt.Sprintf("/api/runs/%s/files/%s", url.PathEscape(runID), url.PathEscape(name))
}

// FromEntries converts recent-runs entries.
func FromEntries(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			Timestamp: formatTime(e.Timestamp),
			Source:    e.Source.String(),
			RunID:     e.RunID,
			Line:      e.Line(),
		})
	}
	return out
}

// FromRecord converts a ledger row.
func FromRecord(rec history.Record) RunRecord {
	out := RunRecord{
		RunID:           rec.RunID,
		Origin:          string(rec.Source.Origin),
		Reference:       rec.Source.Reference,
		Status:          string(rec.Status),
		Language:        rec.Language,
		DurationSeconds: rec.DurationSeconds,
		SegmentCount:    rec.SegmentCount,
		Artifacts:       len(rec.Artifacts),
		Warnings:        rec.Warnings,
		ErrorKind:       rec.ErrorKind,
		ErrorMessage:    rec.ErrorMessage,
		StartedAt:       formatTime(rec.StartedAt),
	}
	if rec.DocumentPath != "" {
		out.Document = FileURL(rec.RunID, filepath.Base(rec.DocumentPath))
	}
	if rec.FinishedAt != nil {
		out.FinishedAt = formatTime(*rec.FinishedAt)
	}
	return out
}

// FromResult converts a workflow result, turning artifact paths into
// download links.
func FromResult(res *workflow.Result) *JobResult {
	if res == nil {
		return nil
	}
	out := &JobResult{
		RunID:           res.RunID,
		Source:          res.Source.String(),
		Language:        res.Language,
		Transcript:      res.Transcript,
		Display:         res.Display,
		SegmentCount:    len(res.Segments),
		DurationSeconds: res.DurationSeconds,
		Estimate:        res.Estimate,
		Warnings:        res.Warnings,
		History:         FromEntries(res.History),
		Message:         res.Message,
		ErrorKind:       res.ErrorKind,
	}
	out.Text = link(res.RunID, res.TextArtifact, transcript.KindText, 0)
	out.Subtitles = link(res.RunID, res.SubtitleArtifact, transcript.KindSubtitle, 0)
	out.Structured = link(res.RunID, res.StructuredArtifact, transcript.KindStructured, 0)
	out.Document = link(res.RunID, res.Document, "", 0)
	for _, a := range res.Artifacts {
		if l := link(res.RunID, a.Path, a.Kind, a.SegmentIndex); l != nil {
			out.Artifacts = append(out.Artifacts, *l)
		}
	}
	return out
}

func link(runID, path string, kind transcript.Kind, segment int) *ArtifactLink {
	if runID == "" || path == "" {
		return nil
	}
	name := filepath.Base(path)
	return &ArtifactLink{Name: name, Kind: string(kind), Segment: segment, URL: FileURL(runID, name)}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
