// Package logging assembles structured slog loggers for the worker.
//
// Diagnostics never share stdout with the event protocol: the default sink is
// stderr, optionally teed into a JSON log file. The package owns the console
// and JSON handlers, the standard field keys, context-aware helpers that tag
// lines with operation and job identifiers, and a sampler that keeps per-job
// progress logging readable.
package logging
