package procexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"aliyaal/internal/services"
)

// Stream identifies which pipe a line was read from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Request describes one tool invocation.
type Request struct {
	Binary string
	Args   []string
	// Env holds extra KEY=VALUE pairs appended to the worker environment.
	Env []string
	Dir string
	// MergeOutput sends stderr through the stdout pipe so the two streams keep
	// their relative order. Lines are then reported as Stdout.
	MergeOutput bool
	// OnLine receives each output line with line terminators removed. Carriage
	// returns count as terminators. Calls are serialized.
	OnLine func(stream Stream, line string)
	// SkipTail reports lines that are delivered to OnLine but kept out of
	// Result.Stderr, such as progress bar redraws.
	SkipTail func(line string) bool
}

// Result is the outcome of a process that started.
type Result struct {
	ExitCode int
	// Stderr holds the last lines of stderr (or of the merged stream).
	Stderr string
}

// Executor runs a tool to completion.
type Executor interface {
	// Run returns an error only when the process could not be started or its
	// output could not be read. A non-zero exit is reported through Result.
	Run(ctx context.Context, req Request) (Result, error)
}

// StartError reports a tool that could not be launched.
type StartError struct {
	Binary string
	Err    error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Binary, e.Err)
}

func (e *StartError) Unwrap() []error { return []error{services.ErrExternalTool, e.Err} }

const (
	maxLineBytes = 1 << 20
	tailLines    = 40
)

// NewExecutor returns the os/exec backed Executor.
func NewExecutor() Executor {
	return commandExecutor{}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, req Request) (Result, error) {
	cmd := exec.CommandContext(ctx, req.Binary, req.Args...)
	cmd.Dir = req.Dir
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, &StartError{Binary: req.Binary, Err: err}
	}
	var stderr io.ReadCloser
	if req.MergeOutput {
		cmd.Stderr = cmd.Stdout
	} else if stderr, err = cmd.StderrPipe(); err != nil {
		return Result{ExitCode: -1}, &StartError{Binary: req.Binary, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, &StartError{Binary: req.Binary, Err: err}
	}

	var (
		mu      sync.Mutex
		tail    = newLineTail(tailLines)
		wg      sync.WaitGroup
		readErr error
	)
	deliver := func(stream Stream, line string) {
		mu.Lock()
		defer mu.Unlock()
		if (stream == Stderr || req.MergeOutput) && (req.SkipTail == nil || !req.SkipTail(line)) {
			tail.add(line)
		}
		if req.OnLine != nil {
			req.OnLine(stream, line)
		}
	}
	consume := func(r io.Reader, stream Stream) {
		defer wg.Done()
		if err := ScanLines(r, func(line string) { deliver(stream, line) }); err != nil {
			mu.Lock()
			if readErr == nil {
				readErr = fmt.Errorf("read %s %s: %w", req.Binary, stream, err)
			}
			mu.Unlock()
		}
	}

	wg.Add(1)
	go consume(stdout, Stdout)
	if stderr != nil {
		wg.Add(1)
		go consume(stderr, Stderr)
	}
	wg.Wait()

	waitErr := cmd.Wait()
	result := Result{ExitCode: 0, Stderr: tail.String()}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			result.ExitCode = -1
			return result, services.Wrap(services.ErrExternalTool, req.Binary, "wait", "", waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	if readErr != nil {
		return result, services.Wrap(services.ErrExternalTool, req.Binary, "output", "", readErr)
	}
	return result, nil
}

// ScanLines reads r and calls fn for every line, treating "\n", "\r\n", and a
// bare "\r" as terminators. Progress bars that redraw with "\r" therefore
// produce one line per redraw.
func ScanLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(splitLinesCR)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	return scanner.Err()
}

func splitLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		switch b {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// Need one more byte to tell "\r" from "\r\n".
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// lineTail keeps the most recent non-blank lines.
type lineTail struct {
	limit int
	lines []string
}

func newLineTail(limit int) *lineTail {
	return &lineTail{limit: limit}
}

func (t *lineTail) add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *lineTail) String() string {
	return strings.Join(t.lines, "\n")
}

// FailureMessage renders the standard per-item failure text for a tool that
// exited non-zero: "<tool> failed with exit code <n>: <stderr>", or
// "<tool> failed with exit code <n>." when stderr is blank.
func FailureMessage(tool string, exitCode int, stderr string) string {
	if detail := strings.TrimSpace(stderr); detail != "" {
		return fmt.Sprintf("%s failed with exit code %d: %s", tool, exitCode, detail)
	}
	return fmt.Sprintf("%s failed with exit code %d.", tool, exitCode)
}
