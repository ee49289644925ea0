package pipeline

import (
	"errors"
	"fmt"

	"aliyaal/internal/procexec"
)

// startFailure renders the per-item message for a tool run that returned an
// error instead of an exit code.
func startFailure(tool string, err error) string {
	var startErr *procexec.StartError
	if errors.As(err, &startErr) {
		return fmt.Sprintf("Failed to start %s: %v", tool, startErr.Err)
	}
	return fmt.Sprintf("%s execution failed: %v", tool, err)
}
