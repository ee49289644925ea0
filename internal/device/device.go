package device

import (
	"os/exec"
	"strings"

	"aliyaal/internal/config"
)

// Prober reports the host facts auto detection relies on.
type Prober interface {
	// Platform returns the kernel name and machine hardware name, as uname
	// reports them.
	Platform() (sysname, machine string, err error)
	LookPath(name string) (string, error)
}

// Resolve maps a compute mode to a device using the host prober.
func Resolve(mode string) string {
	return ResolveWith(mode, hostProber{})
}

// ResolveWith maps a compute mode to a device using p for auto detection.
func ResolveWith(mode string, p Prober) string {
	switch normalized := strings.ToLower(strings.TrimSpace(mode)); normalized {
	case config.ComputeCPU, config.ComputeMPS, config.ComputeCUDA:
		return normalized
	case "", config.ComputeAuto:
		return detect(p)
	default:
		return config.ComputeCPU
	}
}

func detect(p Prober) string {
	if p == nil {
		return config.ComputeCPU
	}
	sysname, machine, err := p.Platform()
	if err == nil && strings.EqualFold(sysname, "darwin") && isARM64(machine) {
		return config.ComputeMPS
	}
	if _, err := p.LookPath("nvidia-smi"); err == nil {
		return config.ComputeCUDA
	}
	return config.ComputeCPU
}

func isARM64(machine string) bool {
	switch strings.ToLower(machine) {
	case "arm64", "aarch64":
		return true
	}
	return false
}

type hostProber struct{}

func (hostProber) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
