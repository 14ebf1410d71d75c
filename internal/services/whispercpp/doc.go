// Package whispercpp adapts the whisper.cpp command-line recognizer.
//
// One Transcribe call handles one segment: it builds the whisper-cli
// arguments (model, input, output basename, requested output kinds, optional
// language and thread count), runs the binary through a
// services.CommandRunner, and reports which transcript_NNN.* files appeared.
// Failures come back as *services.EngineError naming the segment.
package whispercpp
