// Package audio converts arbitrary media into the canonical recognizer input
// (mono, 16 kHz, 16-bit PCM WAV) and cuts long recordings into bounded
// segments.
//
// Normalizer shells out to ffmpeg and verifies the produced header with
// go-wav. Splitter plans segment boundaries with the pure PlanSegments and
// cuts each one without re-encoding. Neither ever deletes a file it wrote.
package audio
