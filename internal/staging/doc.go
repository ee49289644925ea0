// Package staging owns the scratch directories cut jobs write slices and
// concat manifests into. Each job gets a private directory under the
// configured temp dir; the worker sweeps directories a crash left behind
// when it starts.
package staging
