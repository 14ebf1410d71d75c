// Package history keeps track of past runs.
//
// Tracker is the in-memory recent-runs list returned with every
// transcription: at most ten entries, newest first, mutated under a single
// mutex. Store is the durable SQLite ledger (modernc.org/sqlite) recording
// every attempt with its status, artifacts and failure, used by the
// `history` command and the HTTP API, and used to seed the tracker at start.
package history
