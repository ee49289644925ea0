package testsupport

import (
	"sync"
	"testing"
	"time"

	"aliyaal/internal/protocol"
)

// Recorder is a protocol.Emitter that keeps every event in order.
type Recorder struct {
	mu     sync.Mutex
	events []protocol.Event
	notify chan struct{}
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// Emit records ev.
func (r *Recorder) Emit(ev protocol.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a snapshot of the recorded events.
func (r *Recorder) Events() []protocol.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Event(nil), r.events...)
}

// Types returns the type discriminator of each recorded event.
func (r *Recorder) Types() []string {
	events := r.Events()
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.EventType())
	}
	return types
}

// Statuses returns the recorded worker_status events.
func (r *Recorder) Statuses() []protocol.WorkerStatus {
	return Filter[protocol.WorkerStatus](r)
}

// Filter returns the recorded events of type T.
func Filter[T protocol.Event](r *Recorder) []T {
	var out []T
	for _, ev := range r.Events() {
		if typed, ok := ev.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Terminal returns the single terminal event, failing the test when there is
// not exactly one.
func Terminal(t testing.TB, r *Recorder) protocol.OperationDone {
	t.Helper()
	done := Filter[protocol.OperationDone](r)
	if len(done) != 1 {
		t.Fatalf("expected exactly one terminal event, got %d (%v)", len(done), r.Types())
	}
	return done[0]
}

// Progress returns the progress values reported for jobID, in order.
func Progress(r *Recorder, jobID string) []int {
	var out []int
	for _, ev := range Filter[protocol.JobProgress](r) {
		if ev.JobID == jobID {
			out = append(out, ev.ProgressPct)
		}
	}
	return out
}

// Wait blocks until cond holds for the recorded events, failing the test
// after roughly ten seconds.
func (r *Recorder) Wait(t testing.TB, cond func([]protocol.Event) bool) {
	t.Helper()
	for range 2000 {
		if cond(r.Events()) {
			return
		}
		select {
		case <-r.notify:
		case <-time.After(5 * time.Millisecond):
		}
	}
	t.Fatalf("condition not met; events: %v", r.Types())
}
