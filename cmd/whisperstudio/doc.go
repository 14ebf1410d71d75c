// Command whisperstudio transcribes audio and video with whisper.cpp.
//
// It runs one-off transcriptions (`transcribe`), lists past runs
// (`history`), reports environment health (`status`) and serves the HTTP
// API with an optional watch folder (`serve`).
package main
