package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"aliyaal/internal/logging"
	"aliyaal/internal/pipeline"
	"aliyaal/internal/procexec"
	"aliyaal/internal/protocol"
	"aliyaal/internal/testsupport"
)

// gatedExecutor holds every tool run until the gate is closed, then writes
// the tool's output path (the last argument) and exits cleanly.
type gatedExecutor struct {
	gate    chan struct{}
	started chan struct{}
}

func newGatedExecutor() *gatedExecutor {
	return &gatedExecutor{gate: make(chan struct{}), started: make(chan struct{}, 16)}
}

func (g *gatedExecutor) Run(ctx context.Context, req procexec.Request) (procexec.Result, error) {
	g.started <- struct{}{}
	select {
	case <-g.gate:
	case <-ctx.Done():
		return procexec.Result{ExitCode: -1}, nil
	}
	out := req.Args[len(req.Args)-1]
	if err := os.WriteFile(out, []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n"), 0o644); err != nil {
		return procexec.Result{}, err
	}
	return procexec.Result{}, nil
}

type dispatchFunc func(ctx context.Context, op *pipeline.Operation, cmd protocol.StartCommand) error

func (f dispatchFunc) Dispatch(ctx context.Context, op *pipeline.Operation, cmd protocol.StartCommand) error {
	return f(ctx, op, cmd)
}

type harness struct {
	daemon *Daemon
	rec    *testsupport.Recorder
	input  *io.PipeWriter
	done   chan error
}

func startDaemon(t *testing.T, ctx context.Context, dispatcher Dispatcher, opts ...Option) *harness {
	t.Helper()
	rec := testsupport.NewRecorder()
	d, err := New(dispatcher, rec, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pr, pw := io.Pipe()
	h := &harness{daemon: d, rec: rec, input: pw, done: make(chan error, 1)}
	go func() { h.done <- d.Run(ctx, pr) }()
	t.Cleanup(func() { _ = pw.Close() })
	return h
}

func (h *harness) send(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if _, err := io.WriteString(h.input, line+"\n"); err != nil {
			t.Fatalf("write command: %v", err)
		}
	}
}

func (h *harness) close(t *testing.T) error {
	t.Helper()
	_ = h.input.Close()
	return <-h.done
}

func statusMessages(rec *testsupport.Recorder) []string {
	var out []string
	for _, s := range rec.Statuses() {
		out = append(out, string(s.Status)+": "+s.Message)
	}
	return out
}

func hasStatus(status protocol.Status, message string) func([]protocol.Event) bool {
	return func(events []protocol.Event) bool {
		for _, ev := range events {
			if s, ok := ev.(protocol.WorkerStatus); ok && s.Status == status && s.Message == message {
				return true
			}
		}
		return false
	}
}

func newPipelines(t *testing.T, exec procexec.Executor) *pipeline.Pipelines {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	p, err := pipeline.New(cfg, logging.NewNop(),
		pipeline.WithExecutor(exec),
		pipeline.WithDeviceResolver(func(string) string { return "cpu" }),
	)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func TestDaemonBootInvalidLinesAndEOF(t *testing.T) {
	h := startDaemon(t, context.Background(), newPipelines(t, newGatedExecutor()))
	h.send(t, "", "not json", `{"type":"reboot"}`, `{"type":"cancel_batch","batchId":"b9"}`)

	if err := h.close(t); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	got := statusMessages(h.rec)
	if len(got) != 4 {
		t.Fatalf("statuses = %q", got)
	}
	if got[0] != "ready: Worker booted and ready." {
		t.Fatalf("first status = %q", got[0])
	}
	if !strings.HasPrefix(got[1], "error: Invalid command: malformed JSON") {
		t.Fatalf("malformed status = %q", got[1])
	}
	if !strings.HasPrefix(got[2], "error: Invalid command: unsupported command type") {
		t.Fatalf("unsupported status = %q", got[2])
	}
	if got[3] != "error: No active batch found for cancel request: b9." {
		t.Fatalf("cancel status = %q", got[3])
	}
}

func TestDaemonRunsFlagTask(t *testing.T) {
	dir := t.TempDir()
	srt := filepath.Join(dir, "a.srt")
	testsupport.WriteText(t, srt, "1\n00:00:01,000 --> 00:00:02,000\nlet us kill time\n")

	h := startDaemon(t, context.Background(), newPipelines(t, newGatedExecutor()))
	h.send(t, `{"type":"start_flag_batch","taskId":"f1","inputPaths":["`+srt+`"],"settings":{}}`)
	if err := h.close(t); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	done := testsupport.Terminal(t, h.rec)
	if done.TaskID != "f1" || done.TaskKind != protocol.KindFlag || done.Summary != (protocol.Summary{OK: 1}) {
		t.Fatalf("terminal = %+v", done)
	}
	want := []string{
		"ready: Worker booted and ready.",
		"starting: Running flag task f1.",
		"ready: Worker ready for next batch.",
	}
	if got := statusMessages(h.rec); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %q", got)
	}
	types := h.rec.Types()
	if types[len(types)-2] != protocol.TypeTaskDone || types[len(types)-1] != protocol.TypeWorkerStatus {
		t.Fatalf("expected terminal event before the ready status, got %v", types)
	}
	if _, ok := h.daemon.Admission().Active(); ok {
		t.Fatal("expected slot to be released")
	}
}

func TestDaemonConflictAndCancel(t *testing.T) {
	exec := newGatedExecutor()
	dir := t.TempDir()
	inputs := []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4"), filepath.Join(dir, "c.mp4")}

	h := startDaemon(t, context.Background(), newPipelines(t, exec))
	h.send(t, `{"type":"start_transcription_batch","taskId":"t1","inputPaths":["`+strings.Join(inputs, `","`)+`"]}`)
	<-exec.started

	h.send(t,
		`{"type":"start_batch","batchId":"b2","inputPaths":["x.mp4","y.mp4"],"outputDir":"`+dir+`"}`,
		`{"type":"start_cut_job","taskId":"c3","videoPath":"v.mp4","ranges":[{"start":"0","end":"1"}]}`,
		`{"type":"cancel_task","taskId":"t1"}`,
	)
	h.rec.Wait(t, hasStatus(protocol.StatusStarting, "Cancellation requested for task t1."))

	var rejected []protocol.OperationDone
	for _, ev := range testsupport.Filter[protocol.OperationDone](h.rec) {
		rejected = append(rejected, ev)
	}
	if len(rejected) != 2 {
		t.Fatalf("expected two rejected operations, got %+v", rejected)
	}
	if rejected[0].EventType() != protocol.TypeBatchDone || rejected[0].BatchID != "b2" || rejected[0].Summary != (protocol.Summary{Cancelled: 2}) {
		t.Fatalf("batch rejection = %+v", rejected[0])
	}
	if rejected[1].TaskKind != protocol.KindCut || rejected[1].Summary != (protocol.Summary{Cancelled: 1}) {
		t.Fatalf("cut rejection = %+v", rejected[1])
	}

	close(exec.gate)
	if err := h.close(t); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	var final protocol.OperationDone
	for _, ev := range testsupport.Filter[protocol.OperationDone](h.rec) {
		if ev.TaskID == "t1" {
			final = ev
		}
	}
	if final.Summary != (protocol.Summary{OK: 1, Cancelled: 2}) {
		t.Fatalf("t1 summary = %+v", final.Summary)
	}

	conflicts := 0
	for _, msg := range statusMessages(h.rec) {
		if msg == "error: "+msgConflict {
			conflicts++
		}
	}
	if conflicts != 2 {
		t.Fatalf("expected two conflict statuses, got %q", statusMessages(h.rec))
	}
}

func TestDaemonRecoversPanics(t *testing.T) {
	dispatcher := dispatchFunc(func(context.Context, *pipeline.Operation, protocol.StartCommand) error {
		panic("boom")
	})
	h := startDaemon(t, context.Background(), dispatcher)
	h.send(t, `{"type":"start_transcription_batch","taskId":"t1","inputPaths":["a","b","c"]}`)
	h.rec.Wait(t, hasStatus(protocol.StatusReady, msgReady))

	done := testsupport.Terminal(t, h.rec)
	if done.Summary != (protocol.Summary{Failed: 3}) {
		t.Fatalf("summary = %+v", done.Summary)
	}
	var faultStatus string
	for _, msg := range statusMessages(h.rec) {
		if strings.HasPrefix(msg, "error: Unhandled worker failure: ") {
			faultStatus = msg
		}
	}
	if !strings.Contains(faultStatus, "boom") {
		t.Fatalf("statuses = %q", statusMessages(h.rec))
	}

	if _, ok := h.daemon.Admission().Active(); ok {
		t.Fatal("expected slot to be released after a panic")
	}
	if err := h.close(t); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestDaemonFaultKeepsEmittedSummary(t *testing.T) {
	dispatcher := dispatchFunc(func(_ context.Context, op *pipeline.Operation, _ protocol.StartCommand) error {
		op.FinishFault()
		return errors.New("late failure")
	})
	h := startDaemon(t, context.Background(), dispatcher)
	h.send(t, `{"type":"start_cut_job","taskId":"c1","videoPath":"v.mp4","ranges":[]}`)
	if err := h.close(t); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	testsupport.Terminal(t, h.rec)
}

func TestDaemonStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := newGatedExecutor()
	h := startDaemon(t, ctx, newPipelines(t, exec))
	dir := t.TempDir()
	h.send(t, `{"type":"start_transcription_batch","taskId":"t1","inputPaths":["`+filepath.Join(dir, "a.mp4")+`"]}`)
	<-exec.started

	cancel()
	if err := <-h.done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if got := testsupport.Terminal(t, h.rec).Summary; got != (protocol.Summary{Failed: 1}) {
		t.Fatalf("summary = %+v", got)
	}
}

func TestDaemonRejectsOversizedLines(t *testing.T) {
	h := startDaemon(t, context.Background(), newPipelines(t, newGatedExecutor()), WithMaxLineBytes(40))
	h.send(t, `{"type":"cancel_task","taskId":"`+strings.Repeat("x", 64)+`"}`, `{"type":"cancel_task","taskId":"t"}`)
	if err := h.close(t); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	got := statusMessages(h.rec)
	if len(got) != 3 || got[1] != "error: Invalid command: line exceeds 40 bytes" || got[2] != "error: No active task found for cancel request: t." {
		t.Fatalf("statuses = %q", got)
	}
}

func TestReadLines(t *testing.T) {
	input := "first\r\n" + strings.Repeat("y", 20) + "\nlast"
	var lines []string
	var long []bool
	err := readLines(strings.NewReader(input), 10, func(line []byte, tooLong bool) bool {
		lines = append(lines, strings.TrimRight(string(line), "\r\n"))
		long = append(long, tooLong)
		return true
	})
	if err != nil {
		t.Fatalf("readLines: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"first", "", "last"}) || !reflect.DeepEqual(long, []bool{false, true, false}) {
		t.Fatalf("lines = %q long = %v", lines, long)
	}
}
