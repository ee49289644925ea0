//go:build !linux && !darwin

package device

import "runtime"

func (hostProber) Platform() (string, string, error) {
	return runtime.GOOS, runtime.GOARCH, nil
}
