// Package workflow runs the transcription pipeline for one request.
//
// Runner.Transcribe is the single invocation surface shared by the CLI, the
// HTTP API and the inbox watcher. A run moves through these stages in order:
//
//	resolve (remote URLs only) -> normalize -> probe -> split -> recognize
//	(one segment at a time) -> aggregate -> render (optional) -> record
//
// The first fatal failure stops the run. Files already written stay in the
// run directory and are reported in the Result alongside a localized message
// naming the failed stage. Warnings (unknown duration, segments without
// text) are collected and never abort a run.
package workflow
