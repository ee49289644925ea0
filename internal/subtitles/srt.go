package subtitles

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Entry is one timed subtitle cue.
type Entry struct {
	Index int
	Start float64
	End   float64
	Text  string
}

var (
	timingPattern = regexp.MustCompile(`^\s*(\d{1,2}:\d{2}:\d{2}[,.]\d{1,3})\s*-->\s*(\d{1,2}:\d{2}:\d{2}[,.]\d{1,3})`)
	blockSplit    = regexp.MustCompile(`\n[ \t]*\n`)
)

// ParseFile reads and parses an SRT file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// Parse extracts cues from SRT content. A block needs an integer index line, a
// timing line, and at least one text line; anything else is skipped.
func Parse(content string) []Entry {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var entries []Entry
	for _, block := range blockSplit.Split(strings.TrimSpace(content), -1) {
		lines := nonEmptyLines(block)
		if len(lines) < 3 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}
		match := timingPattern.FindStringSubmatch(lines[1])
		if match == nil {
			continue
		}
		start, errStart := parseTimestamp(match[1])
		end, errEnd := parseTimestamp(match[2])
		if errStart != nil || errEnd != nil {
			continue
		}
		entries = append(entries, Entry{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.TrimSpace(strings.Join(lines[2:], "\n")),
		})
	}
	return entries
}

func nonEmptyLines(block string) []string {
	raw := strings.Split(block, "\n")
	lines := raw[:0]
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseTimestamp converts HH:MM:SS,mmm (or with a period) to seconds. Short
// fractions are right-padded, so ",5" is half a second.
func parseTimestamp(value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	clock, fraction, ok := strings.Cut(value, ",")
	if !ok || fraction == "" || len(fraction) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(fraction + strings.Repeat("0", 3-len(fraction)))
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
