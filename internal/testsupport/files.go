package testsupport

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/youpy/go-wav"
)

// WriteFile creates path (and its parent directories) holding size filler
// bytes.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size < 1 {
		size = 1
	}
	f := create(t, path)
	defer f.Close()
	if _, err := io.CopyN(f, filler{}, size); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

type filler struct{}

func (filler) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'B'
	}
	return len(p), nil
}

func create(t testing.TB, path string) *os.File {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	return f
}

// WriteWAV writes seconds of silent mono 16 kHz 16-bit PCM audio to path.
func WriteWAV(t testing.TB, path string, seconds float64) {
	t.Helper()
	WriteWAVFormat(t, path, seconds, 1, 16000)
}

// WriteWAVFormat writes seconds of silent 16-bit PCM audio with the given
// channel count and sample rate.
func WriteWAVFormat(t testing.TB, path string, seconds float64, channels uint16, sampleRate uint32) {
	t.Helper()

	f := create(t, path)
	defer f.Close()

	numSamples := uint32(seconds * float64(sampleRate))
	writer := wav.NewWriter(f, numSamples, channels, sampleRate, 16)
	samples := make([]wav.Sample, numSamples)
	if err := writer.WriteSamples(samples); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
