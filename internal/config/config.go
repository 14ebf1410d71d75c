package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
	AssetsDir string `toml:"assets_dir"`
	InboxDir  string `toml:"inbox_dir"`
	APIBind   string `toml:"api_bind"`
}

// Engine configures the speech-recognition binary.
type Engine struct {
	Binary    string `toml:"binary"`
	ModelPath string `toml:"model_path"`
	Threads   int    `toml:"threads"`
	Language  string `toml:"language"`
}

// Tools names the external media tools.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	YTDLP   string `toml:"ytdlp"`
}

// Chunking controls how long inputs are split before recognition.
type Chunking struct {
	MaxSegmentSeconds int `toml:"max_segment_seconds"`
}

// Timeouts bounds every external tool invocation, in seconds.
type Timeouts struct {
	Probe     int `toml:"probe"`
	Transcode int `toml:"transcode"`
	Split     int `toml:"split"`
	Recognize int `toml:"recognize"`
	Download  int `toml:"download"`
}

// Document configures the PDF export. Asset paths are optional; relative
// values resolve against paths.assets_dir.
type Document struct {
	Title       string `toml:"title"`
	LogoPath    string `toml:"logo_path"`
	FontRegular string `toml:"font_regular"`
	FontBold    string `toml:"font_bold"`
	WrapWidth   int    `toml:"wrap_width"`
}

// Estimate controls the processing-time estimate shown with results.
type Estimate struct {
	Factor float64 `toml:"factor"`
}

// UI contains presentation settings for user-facing messages.
type UI struct {
	Locale string `toml:"locale"`
}

// Inbox configures watch-folder ingestion used by `serve`.
type Inbox struct {
	Enabled       bool   `toml:"enabled"`
	Language      string `toml:"language"`
	Subtitles     bool   `toml:"subtitles"`
	Structured    bool   `toml:"structured"`
	Document      bool   `toml:"document"`
	SettleSeconds int    `toml:"settle_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for whisperstudio.
//
// Configuration sections by subsystem:
//   - Paths: run output root, logs, state database, assets, inbox, API bind
//   - Engine: whisper.cpp binary, model, threads, default language
//   - Tools: ffmpeg / ffprobe / yt-dlp executables
//   - Chunking: maximum segment duration
//   - Timeouts: per-tool invocation limits
//   - Document: PDF export title, optional logo and typefaces
//   - Estimate: processing-time estimate factor
//   - UI: locale for user-facing messages
//   - Inbox: watch-folder defaults
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Engine   Engine   `toml:"engine"`
	Tools    Tools    `toml:"tools"`
	Chunking Chunking `toml:"chunking"`
	Timeouts Timeouts `toml:"timeouts"`
	Document Document `toml:"document"`
	Estimate Estimate `toml:"estimate"`
	UI       UI       `toml:"ui"`
	Inbox    Inbox    `toml:"inbox"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/whisperstudio/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("whisperstudio.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories every command relies on.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Inbox.Enabled && strings.TrimSpace(c.Paths.InboxDir) != "" {
		if err := os.MkdirAll(c.Paths.InboxDir, 0o755); err != nil {
			return fmt.Errorf("create inbox directory %q: %w", c.Paths.InboxDir, err)
		}
	}
	return nil
}

// HistoryDBPath returns the location of the persistent run ledger.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// MaxSegmentDuration returns the chunking policy as a duration.
func (c *Config) MaxSegmentDuration() time.Duration {
	return time.Duration(c.Chunking.MaxSegmentSeconds) * time.Second
}

// ToolTimeouts returns the configured tool limits as durations.
func (c *Config) ToolTimeouts() TimeoutSet {
	return TimeoutSet{
		Probe:     seconds(c.Timeouts.Probe),
		Transcode: seconds(c.Timeouts.Transcode),
		Split:     seconds(c.Timeouts.Split),
		Recognize: seconds(c.Timeouts.Recognize),
		Download:  seconds(c.Timeouts.Download),
	}
}

// TimeoutSet holds per-tool limits.
type TimeoutSet struct {
	Probe     time.Duration
	Transcode time.Duration
	Split     time.Duration
	Recognize time.Duration
	Download  time.Duration
}

func seconds(v int) time.Duration {
	return time.Duration(v) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
