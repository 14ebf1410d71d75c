package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/youpy/go-wav"
)

// Canonical recognizer input format.
const (
	CanonicalSampleRate    = 16000
	CanonicalChannels      = 1
	CanonicalBitsPerSample = 16
)

// WAVInfo summarizes a WAV header.
type WAVInfo struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	Duration      time.Duration
}

// InspectWAV reads the header of the WAV file at path.
func InspectWAV(path string) (WAVInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		return WAVInfo{}, fmt.Errorf("read wav format: %w", err)
	}
	info := WAVInfo{
		AudioFormat:   format.AudioFormat,
		Channels:      format.NumChannels,
		SampleRate:    format.SampleRate,
		BitsPerSample: format.BitsPerSample,
	}
	if duration, err := reader.Duration(); err == nil {
		info.Duration = duration
	}
	return info, nil
}

// Canonical reports whether info describes mono 16 kHz 16-bit PCM audio.
func (i WAVInfo) Canonical() bool {
	return i.AudioFormat == wav.AudioFormatPCM &&
		i.Channels == CanonicalChannels &&
		i.SampleRate == CanonicalSampleRate &&
		i.BitsPerSample == CanonicalBitsPerSample
}

// VerifyCanonical fails when path is not a canonical recognizer input.
func VerifyCanonical(path string) error {
	info, err := InspectWAV(path)
	if err != nil {
		return err
	}
	if !info.Canonical() {
		return fmt.Errorf("unexpected wav format: format=%d channels=%d rate=%d bits=%d",
			info.AudioFormat, info.Channels, info.SampleRate, info.BitsPerSample)
	}
	return nil
}
