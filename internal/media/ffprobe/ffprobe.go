package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"whisperstudio/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Prober measures media durations.
type Prober struct {
	Binary  string
	Runner  services.CommandRunner
	Timeout time.Duration
}

// Duration returns the container duration of path in seconds. Any failure,
// including a timeout or unparseable output, yields 0 ("unknown").
func (p Prober) Duration(ctx context.Context, path string) float64 {
	seconds, err := p.ProbeDuration(ctx, path)
	if err != nil {
		return 0
	}
	return seconds
}

// ProbeDuration is Duration with the underlying failure exposed. Failures
// wrap services.ErrUnknownDuration.
func (p Prober) ProbeDuration(ctx context.Context, path string) (float64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, services.Wrap(services.ErrUnknownDuration, "probe", "ffprobe", "empty path", nil)
	}
	result, err := services.RunTool(ctx, p.Runner, p.Timeout, p.binary(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=nw=1:nk=1",
		path,
	)
	if err != nil {
		return 0, services.Wrap(services.ErrUnknownDuration, "probe", "ffprobe", "", err)
	}
	seconds, err := ParseDuration(result.Stdout)
	if err != nil {
		return 0, services.Wrap(services.ErrUnknownDuration, "probe", "parse", "", err)
	}
	return seconds, nil
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (p Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	output, err := services.RunTool(ctx, p.Runner, p.Timeout, p.binary(),
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(output.Stdout), &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = []byte(output.Stdout)
	return result, nil
}

func (p Prober) binary() string {
	if b := strings.TrimSpace(p.Binary); b != "" {
		return b
	}
	return "ffprobe"
}

// ParseDuration converts ffprobe's single-value duration output into seconds.
// Negative, NaN and infinite values are rejected.
func ParseDuration(output string) (float64, error) {
	cleaned := strings.TrimSpace(output)
	if line, _, ok := strings.Cut(cleaned, "\n"); ok {
		cleaned = strings.TrimSpace(line)
	}
	if cleaned == "" || cleaned == "N/A" {
		return 0, errors.New("no duration reported")
	}
	seconds, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", cleaned, err)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, fmt.Errorf("invalid duration %q", cleaned)
	}
	return seconds, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
