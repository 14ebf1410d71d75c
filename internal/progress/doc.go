// Package progress carries (fraction, description) updates from the
// pipeline to whoever is watching: the CLI progress line, the WebSocket
// stream, the log.
//
// Nop is a valid reporter. NewMonotonic guarantees the non-decreasing,
// clamped sequence observers rely on; Multi fans out.
package progress
