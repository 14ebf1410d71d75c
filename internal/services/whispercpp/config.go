package whispercpp

import "time"

// Config captures runtime settings for whisper.cpp invocations.
type Config struct {
	// Binary is the whisper-cli executable.
	Binary string
	// ModelPath is the ggml model file passed with -m.
	ModelPath string
	// Threads is passed with -t when positive.
	Threads int
	// Timeout bounds one segment's recognition. Zero means no limit.
	Timeout time.Duration
}

// DefaultBinary is the whisper.cpp command-line executable.
const DefaultBinary = "whisper-cli"
