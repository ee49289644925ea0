package procexec

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	"aliyaal/internal/services"
)

func TestScanLinesTreatsCarriageReturnAsBreak(t *testing.T) {
	input := "  5%|#  |\r 10%|##  |\r\nnext\n\nlast"
	var got []string
	if err := ScanLines(strings.NewReader(input), func(line string) { got = append(got, line) }); err != nil {
		t.Fatalf("ScanLines: %v", err)
	}
	want := []string{"  5%|#  |", " 10%|##  |", "next", "", "last"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ScanLines = %q, want %q", got, want)
	}
}

func TestScanLinesTrailingCarriageReturn(t *testing.T) {
	var got []string
	_ = ScanLines(strings.NewReader("a\r"), func(line string) { got = append(got, line) })
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("ScanLines = %q", got)
	}
}

func TestFailureMessage(t *testing.T) {
	if got := FailureMessage("demucs", 2, "  \n"); got != "demucs failed with exit code 2." {
		t.Fatalf("blank stderr message = %q", got)
	}
	if got := FailureMessage("ffmpeg", 1, "\nInvalid data found\n"); got != "ffmpeg failed with exit code 1: Invalid data found" {
		t.Fatalf("stderr message = %q", got)
	}
}

func TestLineTailKeepsRecentLines(t *testing.T) {
	tail := newLineTail(2)
	for _, line := range []string{"one", " ", "two", "three"} {
		tail.add(line)
	}
	if got := tail.String(); got != "two\nthree" {
		t.Fatalf("tail = %q", got)
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandExecutorStreamsAndCapturesStderr(t *testing.T) {
	requireShell(t)

	var lines []string
	res, err := NewExecutor().Run(context.Background(), Request{
		Binary: "sh",
		Args:   []string{"-c", `printf 'out1\rout2\n'; printf 'err1\nerr2\n' 1>&2; exit 3`},
		OnLine: func(stream Stream, line string) { lines = append(lines, string(stream)+":"+line) },
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Stderr != "err1\nerr2" {
		t.Fatalf("stderr tail = %q", res.Stderr)
	}
	joined := strings.Join(lines, ",")
	for _, want := range []string{"stdout:out1", "stdout:out2", "stderr:err1", "stderr:err2"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
}

func TestCommandExecutorSkipsTailLines(t *testing.T) {
	requireShell(t)

	var lines []string
	res, err := NewExecutor().Run(context.Background(), Request{
		Binary:   "sh",
		Args:     []string{"-c", `printf ' 10%%|#  |\r 50%%|## |\rRuntimeError: out of memory\n' 1>&2; exit 3`},
		OnLine:   func(_ Stream, line string) { lines = append(lines, line) },
		SkipTail: func(line string) bool { return strings.Contains(line, "%|") },
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Stderr != "RuntimeError: out of memory" {
		t.Fatalf("stderr tail = %q", res.Stderr)
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if got := FailureMessage("demucs", res.ExitCode, res.Stderr); got != "demucs failed with exit code 3: RuntimeError: out of memory" {
		t.Fatalf("FailureMessage = %q", got)
	}
}

func TestCommandExecutorMergesOutputAndEnv(t *testing.T) {
	requireShell(t)

	var lines []string
	res, err := NewExecutor().Run(context.Background(), Request{
		Binary:      "sh",
		Args:        []string{"-c", `echo "$NSUnbufferedIO"; echo problem 1>&2`},
		Env:         []string{"NSUnbufferedIO=YES"},
		MergeOutput: true,
		OnLine: func(stream Stream, line string) {
			if stream != Stdout {
				t.Errorf("merged line reported on %s", stream)
			}
			lines = append(lines, line)
		},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
	if !reflect.DeepEqual(lines, []string{"YES", "problem"}) {
		t.Fatalf("lines = %q", lines)
	}
}

func TestCommandExecutorStartFailure(t *testing.T) {
	_, err := NewExecutor().Run(context.Background(), Request{Binary: "/nonexistent/aliyaal-tool"})
	var startErr *StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("expected StartError, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
}
