// Package transcript holds the segment and artifact model shared by the
// pipeline stages, plus the pure aggregation of per-segment text into one
// transcript.
package transcript
