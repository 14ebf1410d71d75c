package transcript

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Kind identifies the flavour of an engine output.
type Kind string

// Artifact kinds produced by the engine.
const (
	KindText       Kind = "text"
	KindSubtitle   Kind = "subtitle"
	KindStructured Kind = "structured"
)

// Extension returns the file extension the engine uses for k.
func (k Kind) Extension() string {
	switch k {
	case KindText:
		return ".txt"
	case KindSubtitle:
		return ".srt"
	case KindStructured:
		return ".json"
	default:
		return ""
	}
}

// Segment is one bounded slice of the normalized audio.
type Segment struct {
	Index    int     `json:"index"`
	Start    float64 `json:"start_seconds"`
	Duration float64 `json:"duration_seconds"`
	Path     string  `json:"path"`
}

// End returns the exclusive end offset of the segment in seconds.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Name returns the file name of the segment audio.
func (s Segment) Name() string {
	return filepath.Base(s.Path)
}

// SegmentFileName returns the canonical file name for the segment at index.
func SegmentFileName(index int) string {
	return fmt.Sprintf("chunk_%03d.wav", index)
}

// OutputBase returns the engine output basename (without extension) for the
// segment at index.
func OutputBase(index int) string {
	return fmt.Sprintf("transcript_%03d", index)
}

// Artifact is an engine output tied to one segment. Artifacts are referenced
// by path and never copied.
type Artifact struct {
	SegmentIndex int    `json:"segment_index"`
	Kind         Kind   `json:"kind"`
	Path         string `json:"path"`
}

// Name returns the artifact file name.
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// Part is the plain text recovered for one segment. Present is false when the
// engine produced no text artifact for the segment.
type Part struct {
	SegmentIndex int
	Text         string
	Present      bool
}

// Aggregate joins the text of present parts in segment order, separated by a
// blank line. Part text is kept verbatim; missing or whitespace-only parts
// contribute nothing.
func Aggregate(parts []Part) string {
	ordered := make([]Part, len(parts))
	copy(ordered, parts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SegmentIndex < ordered[j].SegmentIndex
	})

	texts := make([]string, 0, len(ordered))
	for _, part := range ordered {
		if !part.Present {
			continue
		}
		if strings.TrimSpace(part.Text) == "" {
			continue
		}
		texts = append(texts, part.Text)
	}
	return strings.Join(texts, "\n\n")
}

// Filter returns the artifacts of kind k in segment order.
func Filter(artifacts []Artifact, k Kind) []Artifact {
	var out []Artifact
	for _, artifact := range artifacts {
		if artifact.Kind == k {
			out = append(out, artifact)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SegmentIndex < out[j].SegmentIndex
	})
	return out
}

// Primary returns the first artifact of kind k in segment order.
func Primary(artifacts []Artifact, k Kind) (Artifact, bool) {
	filtered := Filter(artifacts, k)
	if len(filtered) == 0 {
		return Artifact{}, false
	}
	return filtered[0], true
}
