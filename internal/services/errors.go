package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrCancelled     = errors.New("cancelled")
	ErrFault         = errors.New("internal fault")
)

// Wrap builds an error message that carries pipeline context while tagging it
// with one of the exported markers so callers can classify the failure with
// errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFault
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint returns a short operator-facing suggestion for a classified error.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExternalTool):
		return "inspect the tool stderr in the job log"
	case errors.Is(err, ErrNotFound):
		return "verify the input path exists and is readable"
	case errors.Is(err, ErrValidation):
		return "fix the request payload and resubmit"
	case errors.Is(err, ErrConfiguration):
		return "run `aliyaal config validate`"
	case errors.Is(err, ErrCancelled):
		return "operation was cancelled on request"
	default:
		return "check worker logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "worker failure"
	}
	return strings.Join(parts, ": ")
}
