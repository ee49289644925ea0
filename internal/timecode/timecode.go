// Package timecode parses the human-entered time codes used by cut requests.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalid reports a time code that could not be parsed.
var ErrInvalid = errors.New("invalid time code")

var multipliers = [...]float64{1, 60, 3600}

// ParseSeconds converts "h:m:s", "m:s", or "s" to seconds. Each component may
// be fractional; components are weighted 1, 60, 3600 from the right.
func ParseSeconds(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalid)
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) > len(multipliers) {
		return 0, fmt.Errorf("%w: %q has too many components", ErrInvalid, value)
	}

	total := 0.0
	for i := range parts {
		part := strings.TrimSpace(parts[len(parts)-1-i])
		n, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, value)
		}
		total += n * multipliers[i]
	}
	return total, nil
}

// Range is a half-open span of a source video, in seconds.
type Range struct {
	Start float64
	End   float64
}

// Valid reports whether the range is non-empty and starts at or after zero.
func (r Range) Valid() bool {
	return r.Start >= 0 && r.End > r.Start
}

// Duration returns End-Start.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// RangeError names a start/end pair, as supplied, that does not form a
// usable range.
type RangeError struct {
	Start string
	End   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: %s-%s", e.Start, e.End)
}

func (e *RangeError) Unwrap() error { return ErrInvalid }

// ParseRange parses a start/end pair and checks the range is usable.
func ParseRange(start, end string) (Range, error) {
	s, errStart := ParseSeconds(start)
	e, errEnd := ParseSeconds(end)
	r := Range{Start: s, End: e}
	if errStart != nil || errEnd != nil || !r.Valid() {
		return Range{}, &RangeError{Start: start, End: end}
	}
	return r, nil
}
