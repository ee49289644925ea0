// Package config loads, normalizes, and validates worker configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the AIYAAL_FFMPEG_PATH, AIYAAL_DEMUCS_PATH, and
// AIYAAL_YAP_PATH environment overrides for tool binaries. Every other package
// receives its settings from the Config type so the worker, the CLI, and tests
// agree on one set of tool paths and output conventions.
package config
