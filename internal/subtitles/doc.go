// Package subtitles reads SRT subtitle files and resolves the sidecar files
// (transcript and moderation analysis) that live next to a video.
//
// Parsing is deliberately forgiving: blocks that do not look like a cue are
// skipped rather than failing the whole file, and cue timing is passed through
// without checking that end follows start.
package subtitles
