// Package ytdlp resolves remote media URLs into local files with yt-dlp.
//
// Downloads land in the run directory as remote_audio.<ext>; the final path
// is taken from yt-dlp's after_move print, falling back to a glob.
package ytdlp
