package audio

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"whisperstudio/internal/logging"
	"whisperstudio/internal/services"
)

// NormalizedFileName is the name of the canonical audio file in a run directory.
const NormalizedFileName = "audio.wav"

// Normalizer converts media into the canonical recognizer input.
type Normalizer struct {
	FFmpeg  string
	Runner  services.CommandRunner
	Timeout time.Duration
	Logger  *slog.Logger
}

// Normalize writes workDir/audio.wav from input and returns its path. Any
// ffmpeg failure, or output that is not mono 16 kHz PCM, wraps
// services.ErrTranscode.
func (n Normalizer) Normalize(ctx context.Context, input, workDir string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", services.Wrap(services.ErrTranscode, "normalize", "validate", "empty input path", nil)
	}
	dest := filepath.Join(workDir, NormalizedFileName)
	args := NormalizeArgs(input, dest)

	logger := n.logger()
	logger.Debug("normalizing audio",
		logging.String("input", input),
		logging.String("output", dest),
	)
	started := time.Now()
	if _, err := services.RunTool(ctx, n.Runner, n.Timeout, ffmpegBinary(n.FFmpeg), args...); err != nil {
		return "", services.Wrap(services.ErrTranscode, "normalize", "ffmpeg", "", err)
	}
	if _, err := os.Stat(dest); err != nil {
		return "", services.Wrap(services.ErrTranscode, "normalize", "verify", "output missing", err)
	}
	if err := VerifyCanonical(dest); err != nil {
		return "", services.Wrap(services.ErrTranscode, "normalize", "verify", "", err)
	}
	logger.Info("audio normalized",
		logging.String("output", dest),
		logging.Duration("elapsed", time.Since(started)),
	)
	return dest, nil
}

// NormalizeArgs builds the ffmpeg arguments that transcode input to dest.
func NormalizeArgs(input, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		dest,
	}
}

func (n Normalizer) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return logging.NewNop()
}

func ffmpegBinary(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return "ffmpeg"
}
