package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeLimits()
	if err := c.normalizeDocument(); err != nil {
		return err
	}
	c.normalizeUI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.assets_dir", &c.Paths.AssetsDir, defaultAssetsDir},
		{"paths.inbox_dir", &c.Paths.InboxDir, defaultInboxDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	if value, ok := os.LookupEnv("WHISPER_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.Engine.ModelPath = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Engine.ModelPath) == "" {
		c.Engine.ModelPath = defaultModelPath
	}
	var err error
	if c.Engine.ModelPath, err = expandPath(strings.TrimSpace(c.Engine.ModelPath)); err != nil {
		return fmt.Errorf("engine.model_path: %w", err)
	}
	if c.Engine.Threads < 0 {
		c.Engine.Threads = 0
	}
	c.Engine.Language = strings.TrimSpace(c.Engine.Language)
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = orDefault(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.FFprobe = orDefault(c.Tools.FFprobe, defaultFFprobe)
	c.Tools.YTDLP = orDefault(c.Tools.YTDLP, defaultYTDLP)
}

func (c *Config) normalizeLimits() {
	if c.Chunking.MaxSegmentSeconds == 0 {
		c.Chunking.MaxSegmentSeconds = defaultMaxSegmentSeconds
	}
	timeouts := []struct {
		value    *int
		fallback int
	}{
		{&c.Timeouts.Probe, defaultProbeTimeout},
		{&c.Timeouts.Transcode, defaultTranscodeTimeout},
		{&c.Timeouts.Split, defaultSplitTimeout},
		{&c.Timeouts.Recognize, defaultRecognizeTimeout},
		{&c.Timeouts.Download, defaultDownloadTimeout},
	}
	for _, t := range timeouts {
		if *t.value == 0 {
			*t.value = t.fallback
		}
	}
	if c.Inbox.SettleSeconds <= 0 {
		c.Inbox.SettleSeconds = defaultSettleSeconds
	}
	c.Inbox.Language = strings.TrimSpace(c.Inbox.Language)
}

func (c *Config) normalizeDocument() error {
	c.Document.Title = strings.TrimSpace(c.Document.Title)
	if c.Document.Title == "" {
		c.Document.Title = defaultDocumentTitle
	}
	if c.Document.WrapWidth == 0 {
		c.Document.WrapWidth = defaultWrapWidth
	}
	assets := []struct {
		name  string
		value *string
	}{
		{"document.logo_path", &c.Document.LogoPath},
		{"document.font_regular", &c.Document.FontRegular},
		{"document.font_bold", &c.Document.FontBold},
	}
	for _, asset := range assets {
		trimmed := strings.TrimSpace(*asset.value)
		if trimmed == "" {
			*asset.value = ""
			continue
		}
		if !filepath.IsAbs(trimmed) && !strings.HasPrefix(trimmed, "~") {
			trimmed = filepath.Join(c.Paths.AssetsDir, trimmed)
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", asset.name, err)
		}
		*asset.value = expanded
	}
	return nil
}

func (c *Config) normalizeUI() {
	if value, ok := os.LookupEnv("WHISPERSTUDIO_LOCALE"); ok && strings.TrimSpace(value) != "" {
		c.UI.Locale = value
	}
	c.UI.Locale = strings.ToLower(strings.TrimSpace(c.UI.Locale))
	if c.UI.Locale == "" {
		c.UI.Locale = defaultLocale
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
