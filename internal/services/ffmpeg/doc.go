// Package ffmpeg builds and runs the ffmpeg invocations the pipelines need:
// the vocal remux for remove-music and the slice/concat pair for cuts.
package ffmpeg
