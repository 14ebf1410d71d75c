// Package inbox turns a watch folder into a transcription queue.
//
// Media files dropped into the folder are transcribed one at a time once they
// have stopped changing for the settle delay. Files already present when the
// watcher starts are picked up too. Each file is processed once per
// modification; results land in the regular run directories.
package inbox
