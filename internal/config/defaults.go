package config

const (
	defaultOutputDir         = "~/.local/share/whisperstudio/outputs"
	defaultLogDir            = "~/.local/share/whisperstudio/logs"
	defaultStateDir          = "~/.local/share/whisperstudio/state"
	defaultAssetsDir         = "~/.local/share/whisperstudio/assets"
	defaultInboxDir          = "~/.local/share/whisperstudio/inbox"
	defaultAPIBind           = "127.0.0.1:7860"
	defaultEngineBinary      = "whisper-cli"
	defaultModelPath         = "~/.local/share/whisperstudio/models/ggml-small.bin"
	defaultFFmpeg            = "ffmpeg"
	defaultFFprobe           = "ffprobe"
	defaultYTDLP             = "yt-dlp"
	defaultMaxSegmentSeconds = 2 * 3600
	defaultProbeTimeout      = 60
	defaultTranscodeTimeout  = 3600
	defaultSplitTimeout      = 900
	defaultRecognizeTimeout  = 6 * 3600
	defaultDownloadTimeout   = 1800
	defaultDocumentTitle     = "Whisper Transcription"
	defaultLogoPath          = "logo.png"
	defaultFontRegular       = "fonts/Roboto-Regular.ttf"
	defaultFontBold          = "fonts/Roboto-Bold.ttf"
	defaultWrapWidth         = 100
	defaultEstimateFactor    = 0.7
	defaultLocale            = "en"
	defaultSettleSeconds     = 3
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
			AssetsDir: defaultAssetsDir,
			InboxDir:  defaultInboxDir,
			APIBind:   defaultAPIBind,
		},
		Engine: Engine{
			Binary:    defaultEngineBinary,
			ModelPath: defaultModelPath,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
			YTDLP:   defaultYTDLP,
		},
		Chunking: Chunking{
			MaxSegmentSeconds: defaultMaxSegmentSeconds,
		},
		Timeouts: Timeouts{
			Probe:     defaultProbeTimeout,
			Transcode: defaultTranscodeTimeout,
			Split:     defaultSplitTimeout,
			Recognize: defaultRecognizeTimeout,
			Download:  defaultDownloadTimeout,
		},
		Document: Document{
			Title:       defaultDocumentTitle,
			LogoPath:    defaultLogoPath,
			FontRegular: defaultFontRegular,
			FontBold:    defaultFontBold,
			WrapWidth:   defaultWrapWidth,
		},
		Estimate: Estimate{
			Factor: defaultEstimateFactor,
		},
		UI: UI{
			Locale: defaultLocale,
		},
		Inbox: Inbox{
			Subtitles:     true,
			SettleSeconds: defaultSettleSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
