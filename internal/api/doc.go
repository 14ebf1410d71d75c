// Package api exposes transcription over HTTP for the `serve` command.
//
// Jobs are submitted with POST /api/jobs and run in the background through
// the workflow runner. Their progress is buffered per job in an EventBus and
// streamed over a websocket at /api/jobs/{id}/events; the stream replays
// buffered events and closes after the final result event. Run files are
// served from the run directory only, via runs.Manager.ResolveFile.
//
// The API has no authentication and is meant for trusted clients on a
// private bind address. mediaPath names a file on the server's disk, so the
// JobService accepts only paths below its media roots (WithMediaRoots);
// `serve` always allows the inbox directory plus any --media-root flags.
// Finished jobs are kept up to WithRetainedJobs, oldest evicted first.
package api
