// Package demucs wraps the demucs source separation CLI used by the
// remove-music pipeline.
//
// It builds the two-stem invocation, knows where demucs writes the isolated
// vocals, and scrapes the tqdm-style percentage markers demucs prints on
// stderr so callers can map them onto job progress.
package demucs
