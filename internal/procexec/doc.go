// Package procexec runs external media tools and streams their output line by
// line.
//
// Executor is the seam the pipelines are tested through: production code uses
// the os/exec backed implementation, tests substitute scripted fakes. Tool
// specific argument building and output parsing live with each tool adapter
// under internal/services.
package procexec
