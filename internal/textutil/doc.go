// Package textutil holds small string helpers shared by the pipelines: job
// identifier derivation and terminal escape stripping for tool output.
package textutil
