package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"aliyaal/internal/logging"
)

const defaultPoll = 250 * time.Millisecond

// Filter selects log records by correlation keys. Empty fields match all.
type Filter struct {
	OperationID string
	JobID       string
	Component   string
}

func (f Filter) empty() bool { return f.OperationID == "" && f.JobID == "" && f.Component == "" }

// Match reports whether line passes the filter. Lines that are not JSON
// objects only pass an empty filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return false
	}
	if f.OperationID != "" && record[logging.FieldOperationID] != f.OperationID {
		return false
	}
	if f.JobID != "" && record[logging.FieldJobID] != f.JobID {
		return false
	}
	if f.Component != "" && record[logging.FieldComponent] != f.Component {
		return false
	}
	return true
}

// TailOptions controls Tail.
type TailOptions struct {
	// Limit is the number of trailing lines printed first; zero prints none.
	Limit  int
	Follow bool
	Poll   time.Duration
	Filter Filter
}

// Tail emits the last lines of path and, when following, every line appended
// afterwards until ctx ends. A missing file is treated as empty.
func Tail(ctx context.Context, path string, opts TailOptions, emit func(line string)) error {
	lines, offset, err := readLastLines(path, opts.Limit)
	if err != nil {
		return err
	}
	emitMatching(lines, opts.Filter, emit)
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		lines, offset, err = readForward(path, offset)
		if err != nil {
			return err
		}
		emitMatching(lines, opts.Filter, emit)
	}
}

func emitMatching(lines []string, filter Filter, emit func(string)) {
	for _, line := range lines {
		if filter.Match(line) {
			emit(line)
		}
	}
}

// readLastLines returns up to limit trailing complete lines and the offset
// just past them.
func readLastLines(path string, limit int) ([]string, int64, error) {
	lines, offset, err := readForward(path, 0)
	if err != nil || limit <= 0 {
		return nil, offset, err
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, offset, nil
}

// readForward reads complete lines starting at offset. A file shorter than
// offset was truncated and is read from the start.
func readForward(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, offset, fmt.Errorf("log path %q is a directory", path)
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// A trailing partial line is left for the next read.
				return lines, offset, nil
			}
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		line = line[:len(line)-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		lines = append(lines, line)
	}
}
