// Package services defines shared utilities consumed by the transcription
// pipeline and its external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, segment indexes, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline's taxonomy (transcode, split, engine, render, ...).
//   - A command runner abstraction with per-invocation timeouts so external
//     tools (ffmpeg, ffprobe, whisper-cli, yt-dlp) are testable and can never
//     hang a run.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
