// Package device picks the torch device string handed to demucs.
//
// Explicit modes (cpu, mps, cuda) pass through unchanged. Auto mode probes the
// host: Apple Silicon resolves to mps, a visible nvidia-smi to cuda, and
// anything else, including probe failures, to cpu.
package device
