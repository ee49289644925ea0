// Package logs tails the worker's JSON log file for the CLI.
//
// It reads the last N lines with bounded memory, follows appended lines by
// polling, and restarts from the top when the file is truncated. Only complete
// lines are emitted; a line still being written is picked up on the next poll.
// Filters match the operation_id and job_id keys the worker stamps on records.
package logs
