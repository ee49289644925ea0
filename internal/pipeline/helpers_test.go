package pipeline

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aliyaal/internal/config"
	"aliyaal/internal/logging"
	"aliyaal/internal/procexec"
	"aliyaal/internal/protocol"
	"aliyaal/internal/testsupport"
)

type toolFunc func(req procexec.Request) (procexec.Result, error)

// fakeExecutor dispatches on the binary name. Unknown binaries fail to start.
type fakeExecutor struct {
	mu    sync.Mutex
	tools map[string]toolFunc
	calls []procexec.Request
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{tools: map[string]toolFunc{}}
}

func (f *fakeExecutor) on(binary string, fn toolFunc) *fakeExecutor {
	f.tools[binary] = fn
	return f
}

func (f *fakeExecutor) Run(_ context.Context, req procexec.Request) (procexec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn, ok := f.tools[req.Binary]
	f.mu.Unlock()
	if !ok {
		return procexec.Result{ExitCode: -1}, &procexec.StartError{Binary: req.Binary, Err: exec.ErrNotFound}
	}
	return fn(req)
}

func (f *fakeExecutor) callCount(binary string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call.Binary == binary {
			n++
		}
	}
	return n
}

func writeOutput(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("media"), 0o644)
}

// demucsWritesVocals emulates a successful separation run.
func demucsWritesVocals(req procexec.Request) (procexec.Result, error) {
	input, root := req.Args[5], req.Args[7]
	for _, line := range []string{" 10%|#         |", " 50%|#####     |", "100%|##########|"} {
		req.OnLine(procexec.Stderr, line)
	}
	stem := filepath.Base(input)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	vocals := filepath.Join(root, "htdemucs", stem, "vocals.wav")
	if err := writeOutput(vocals); err != nil {
		return procexec.Result{}, err
	}
	if err := writeOutput(filepath.Join(root, "htdemucs", stem, "no_vocals.wav")); err != nil {
		return procexec.Result{}, err
	}
	return procexec.Result{}, nil
}

// ffmpegWritesLastArg emulates ffmpeg producing its output file.
func ffmpegWritesLastArg(req procexec.Request) (procexec.Result, error) {
	return procexec.Result{}, writeOutput(req.Args[len(req.Args)-1])
}

func exitWith(code int, stderr string) toolFunc {
	return func(procexec.Request) (procexec.Result, error) {
		return procexec.Result{ExitCode: code, Stderr: stderr}, nil
	}
}

type cancelFlag struct{ set atomic.Bool }

func (c *cancelFlag) Cancelled() bool { return c.set.Load() }

// cancelAfter reports cancellation once it has been polled more than n times.
type cancelAfter struct {
	n     int32
	polls atomic.Int32
}

func (c *cancelAfter) Cancelled() bool { return c.polls.Add(1) > c.n }

func newPipelines(t *testing.T, exec procexec.Executor, opts ...testsupport.ConfigOption) (*Pipelines, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	p, err := New(cfg, logging.NewNop(),
		WithExecutor(exec),
		WithDeviceResolver(func(string) string { return "cpu" }),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, cfg
}

func run(t *testing.T, p *Pipelines, cmd protocol.StartCommand, cancel Canceller) *testsupport.Recorder {
	t.Helper()
	return runContext(t, context.Background(), p, cmd, cancel)
}

func runContext(t *testing.T, ctx context.Context, p *Pipelines, cmd protocol.StartCommand, cancel Canceller) *testsupport.Recorder {
	t.Helper()
	rec := testsupport.NewRecorder()
	if cancel == nil {
		cancel = &cancelFlag{}
	}
	op := NewOperation(cmd, cancel, rec, logging.NewNop())
	if err := p.Dispatch(ctx, op, cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	return rec
}

func assertMonotonic(t *testing.T, values []int) {
	t.Helper()
	for i, v := range values {
		if v < 0 || v > 100 {
			t.Fatalf("progress %d out of range in %v", v, values)
		}
		if i > 0 && v <= values[i-1] {
			t.Fatalf("progress not increasing: %v", values)
		}
	}
}

func jobErrors(rec *testsupport.Recorder) []string {
	var out []string
	for _, ev := range testsupport.Filter[protocol.JobError](rec) {
		out = append(out, ev.Error)
	}
	return out
}
