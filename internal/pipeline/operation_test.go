package pipeline

import (
	"context"
	"testing"

	"aliyaal/internal/logging"
	"aliyaal/internal/protocol"
	"aliyaal/internal/testsupport"
)

func TestTallyFaultCountsUnaccountedItems(t *testing.T) {
	tally := NewTally(4)
	tally.add(1, 0, 0)
	tally.add(0, 1, 0)
	summary, ok := tally.close(true)
	if !ok {
		t.Fatal("expected first close to succeed")
	}
	if summary != (protocol.Summary{OK: 1, Failed: 3}) {
		t.Fatalf("summary = %+v", summary)
	}
	if _, ok := tally.close(true); ok {
		t.Fatal("expected second close to be refused")
	}
}

func TestTallyFaultWithNoItemsReportsFailure(t *testing.T) {
	summary, _ := NewTally(0).close(true)
	if summary != (protocol.Summary{Failed: 1}) {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestFinishFaultAfterFinishIsNoop(t *testing.T) {
	rec := testsupport.NewRecorder()
	cmd := protocol.StartTranscriptionBatch{TaskID: "t1"}
	op := NewOperation(cmd, &cancelFlag{}, rec, logging.NewNop())
	op.forEach(context.Background(), nil, func(context.Context, *job) {})
	if op.FinishFault() {
		t.Fatal("expected no fault summary after a normal finish")
	}
	done := testsupport.Terminal(t, rec)
	if done.EventType() != protocol.TypeTaskDone || done.Summary.Total() != 0 {
		t.Fatalf("unexpected terminal event %+v", done)
	}
}

func TestJobProgressClampsAndDropsRegressions(t *testing.T) {
	rec := testsupport.NewRecorder()
	cmd := protocol.StartFlagBatch{TaskID: "t1", InputPaths: []string{"/v/a.mp4"}}
	op := NewOperation(cmd, &cancelFlag{}, rec, logging.NewNop())
	op.forEach(context.Background(), cmd.InputPaths, func(_ context.Context, j *job) {
		for _, pct := range []int{-5, 10, 10, 7, 40, 250, 90} {
			j.progress(pct)
		}
		j.done("", nil)
	})
	got := testsupport.Progress(rec, "v-a-mp4")
	want := []int{0, 10, 40, 100}
	if len(got) != len(want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress = %v, want %v", got, want)
		}
	}
}

func TestUnsettledJobCountsAsFailed(t *testing.T) {
	rec := testsupport.NewRecorder()
	cmd := protocol.StartFlagBatch{TaskID: "t1", InputPaths: []string{"a", "b"}}
	op := NewOperation(cmd, &cancelFlag{}, rec, logging.NewNop())
	op.forEach(context.Background(), cmd.InputPaths, func(context.Context, *job) {})
	if got := testsupport.Terminal(t, rec).Summary; got != (protocol.Summary{Failed: 2}) {
		t.Fatalf("summary = %+v", got)
	}
}
