// Package worker hosts the stdin/stdout daemon.
//
// The daemon reads one JSON command per line, admits at most one operation at
// a time through the Admission controller, and runs the admitted operation's
// pipeline on its own goroutine so the read loop stays free to accept cancel
// requests. Every admitted operation ends with exactly one terminal event,
// even when the pipeline panics, followed by a ready status.
package worker
