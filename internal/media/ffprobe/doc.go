// Package ffprobe wraps the ffprobe binary for duration probing and
// container inspection.
//
// Prober.Duration is deliberately forgiving: any failure yields 0 so callers
// treat the length as unknown and keep going. Inspect returns the full JSON
// view used by diagnostics.
package ffprobe
