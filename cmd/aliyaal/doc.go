// Package main hosts the aliyaal CLI entrypoint and command graph.
//
// The Cobra-based command tree starts the stdin/stdout worker that the host
// application drives, reports on the external media binaries, runs offline
// moderation reports, and scaffolds configuration. Configuration is resolved
// once per invocation so subcommands can focus on their own output.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
