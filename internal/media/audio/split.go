package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"whisperstudio/internal/logging"
	"whisperstudio/internal/services"
	"whisperstudio/internal/transcript"
)

// DefaultMaxSegment is the default chunking threshold.
const DefaultMaxSegment = 2 * time.Hour

// Splitter cuts long audio into bounded segments.
type Splitter struct {
	FFmpeg     string
	Runner     services.CommandRunner
	Timeout    time.Duration
	MaxSegment time.Duration
	Logger     *slog.Logger
}

// PlanSegments returns the boundaries for an input of total seconds under a
// policy of limit seconds. An unknown (<= 0) total or one within the limit
// yields a single segment covering the whole input. Otherwise the result has
// ceil(total/limit) contiguous segments whose durations sum to total.
func PlanSegments(total, limit float64) []transcript.Segment {
	if total <= 0 || limit <= 0 || total <= limit {
		if total < 0 {
			total = 0
		}
		return []transcript.Segment{{Index: 0, Start: 0, Duration: total}}
	}
	count := int(math.Ceil(total / limit))
	segments := make([]transcript.Segment, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * limit
		length := math.Min(limit, total-start)
		if length <= 0 {
			break
		}
		segments = append(segments, transcript.Segment{Index: i, Start: start, Duration: length})
	}
	return segments
}

// Split plans and cuts audioPath. When a single segment suffices, its Path is
// audioPath itself and no file is written. Any cut failure wraps
// services.ErrSplit and no segments are returned.
func (s Splitter) Split(ctx context.Context, audioPath, workDir string, totalSeconds float64) ([]transcript.Segment, error) {
	plan := PlanSegments(totalSeconds, s.limit().Seconds())
	if len(plan) == 1 {
		plan[0].Path = audioPath
		return plan, nil
	}

	logger := s.logger()
	logger.Info("splitting audio",
		logging.Int("segments", len(plan)),
		logging.Float64("duration_seconds", totalSeconds),
	)
	for i := range plan {
		dest := filepath.Join(workDir, transcript.SegmentFileName(plan[i].Index))
		args := CutArgs(audioPath, dest, plan[i].Start, plan[i].Duration)
		if _, err := services.RunTool(ctx, s.Runner, s.Timeout, ffmpegBinary(s.FFmpeg), args...); err != nil {
			return nil, services.Wrap(services.ErrSplit, "split", "ffmpeg", fmt.Sprintf("segment %d", plan[i].Index), err)
		}
		if _, err := os.Stat(dest); err != nil {
			return nil, services.Wrap(services.ErrSplit, "split", "verify", fmt.Sprintf("segment %d missing", plan[i].Index), err)
		}
		plan[i].Path = dest
		logger.Debug("segment cut",
			logging.Segment(plan[i].Index),
			logging.String("path", dest),
		)
	}
	return plan, nil
}

// CutArgs builds the ffmpeg arguments for one stream-copied segment.
func CutArgs(input, dest string, start, length float64) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-acodec", "copy",
		dest,
	}
}

func (s Splitter) limit() time.Duration {
	if s.MaxSegment > 0 {
		return s.MaxSegment
	}
	return DefaultMaxSegment
}

func (s Splitter) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.NewNop()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
