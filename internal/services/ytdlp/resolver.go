package ytdlp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"whisperstudio/internal/logging"
	"whisperstudio/internal/services"
)

// OutputStem is the fixed file stem of downloaded media in a run directory.
const OutputStem = "remote_audio"

// DefaultBinary is the yt-dlp executable.
const DefaultBinary = "yt-dlp"

// Resolver downloads remote media into a run directory.
type Resolver struct {
	Binary  string
	Runner  services.CommandRunner
	Timeout time.Duration
	Logger  *slog.Logger
}

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("empty url")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url %q has no host", trimmed)
	}
	return parsed, nil
}

// Resolve downloads the best audio stream of rawURL into workDir and returns
// the local path. Every failure wraps services.ErrSourceResolution.
func (r Resolver) Resolve(ctx context.Context, rawURL, workDir string) (string, error) {
	parsed, err := ValidateURL(rawURL)
	if err != nil {
		return "", services.Wrap(services.ErrSourceResolution, "download", "validate", "", err)
	}
	target := parsed.String()

	logger := r.logger()
	logger.Info("downloading remote media", logging.String("url", target))
	started := time.Now()

	result, err := services.RunTool(ctx, r.Runner, r.Timeout, r.binary(), Args(target, workDir)...)
	if err != nil {
		return "", services.Wrap(services.ErrSourceResolution, "download", "yt-dlp", "", err)
	}

	path, err := locateDownload(result.Stdout, workDir)
	if err != nil {
		return "", services.Wrap(services.ErrSourceResolution, "download", "locate", "", err)
	}
	logger.Info("remote media downloaded",
		logging.String("path", path),
		logging.Duration("elapsed", time.Since(started)),
	)
	return path, nil
}

// Args builds the yt-dlp arguments for target.
func Args(target, workDir string) []string {
	return []string{
		"-f", "bestaudio/best",
		"--no-playlist",
		"--no-warnings",
		"--no-progress",
		"-o", filepath.Join(workDir, OutputStem+".%(ext)s"),
		"--print", "after_move:filepath",
		target,
	}
}

func locateDownload(stdout, workDir string) (string, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate == "" {
			continue
		}
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(workDir, candidate)
		}
		if filepath.Dir(candidate) != filepath.Clean(workDir) {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}

	matches, err := filepath.Glob(filepath.Join(workDir, OutputStem+".*"))
	if err != nil {
		return "", fmt.Errorf("glob downloads: %w", err)
	}
	sort.Strings(matches)
	for _, match := range matches {
		if strings.HasSuffix(match, ".part") || strings.HasSuffix(match, ".ytdl") {
			continue
		}
		if info, err := os.Stat(match); err == nil && info.Mode().IsRegular() {
			return match, nil
		}
	}
	return "", fmt.Errorf("no downloaded file in %s", workDir)
}

func (r Resolver) binary() string {
	if b := strings.TrimSpace(r.Binary); b != "" {
		return b
	}
	return DefaultBinary
}

func (r Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return logging.NewComponentLogger(r.Logger, "download")
	}
	return logging.NewNop()
}
