package runs

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"whisperstudio/internal/transcript"
)

// IDLayout is the time layout of run identifiers (seconds resolution).
const IDLayout = "20060102_150405"

// Origin tells where the media of a run came from.
type Origin string

// Source origins.
const (
	OriginUpload Origin = "upload"
	OriginRemote Origin = "remote"
)

// Source describes the media a run was started from.
type Source struct {
	Origin    Origin `json:"origin"`
	Reference string `json:"reference"`
}

// UploadSource describes a local media file.
func UploadSource(path string) Source {
	return Source{Origin: OriginUpload, Reference: strings.TrimSpace(path)}
}

// RemoteSource describes a remote media URL.
func RemoteSource(rawURL string) Source {
	return Source{Origin: OriginRemote, Reference: strings.TrimSpace(rawURL)}
}

// Label is a short human-readable reference: the file name for uploads, the
// URL host and path for remote media.
func (s Source) Label() string {
	switch s.Origin {
	case OriginUpload:
		return filepath.Base(s.Reference)
	case OriginRemote:
		if parsed, err := url.Parse(s.Reference); err == nil && parsed.Host != "" {
			return parsed.Host + parsed.EscapedPath()
		}
		return s.Reference
	default:
		return s.Reference
	}
}

// String renders the source as "origin: reference".
func (s Source) String() string {
	ref := s.Reference
	if s.Origin == OriginUpload {
		ref = filepath.Base(ref)
	}
	return fmt.Sprintf("%s: %s", s.Origin, ref)
}

// Run is one transcription attempt and its working area. The directory is
// owned exclusively by the run and never removed by this package.
type Run struct {
	ID        string
	CreatedAt time.Time
	Source    Source
	Dir       string

	mu        sync.Mutex
	artifacts []transcript.Artifact
}

// Path returns name joined onto the run directory.
func (r *Run) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// Track records artifacts produced for the run.
func (r *Run) Track(artifacts ...transcript.Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts = append(r.artifacts, artifacts...)
}

// Artifacts returns a copy of the tracked artifacts in production order.
func (r *Run) Artifacts() []transcript.Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]transcript.Artifact, len(r.artifacts))
	copy(out, r.artifacts)
	return out
}
