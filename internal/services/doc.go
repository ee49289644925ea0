// Package services defines shared plumbing consumed by the task pipelines and
// the tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp operation IDs, job IDs, task kinds, and run
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (tool failure vs missing input vs bad request) without string
//     matching.
//
// The tool adapters live in subpackages (demucs, ffmpeg, yap) and only build
// arguments and parse tool output; process execution lives in procexec.
package services
