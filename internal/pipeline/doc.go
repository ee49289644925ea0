// Package pipeline implements the four task pipelines the worker runs:
// remove-music, transcription, flag, and cut.
//
// Each pipeline walks its items in order, polling the operation's
// cancellation token before every item, and reports through the protocol
// emitter: per-item progress, logs, errors and completions, then exactly one
// terminal summary. A failing item never aborts the batch. Intermediate files
// are removed on every exit path of the step that created them.
//
// Cancellation is advisory. External processes are bound to the worker's
// lifetime context, never to the token, so an item that has started always
// runs to completion.
package pipeline
