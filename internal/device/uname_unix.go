//go:build linux || darwin

package device

import "golang.org/x/sys/unix"

func (hostProber) Platform() (string, string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", "", err
	}
	return unix.ByteSliceToString(uts.Sysname[:]), unix.ByteSliceToString(uts.Machine[:]), nil
}
