// Package yap drives the yap speech transcription CLI and interprets its
// progress output.
package yap
