package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"aliyaal/internal/logging"
	"aliyaal/internal/protocol"
	"aliyaal/internal/services"
	"aliyaal/internal/textutil"
)

// Canceller is polled at safe points between items.
type Canceller interface {
	Cancelled() bool
}

// Tally accounts for every item of an operation and guards the single
// terminal event.
type Tally struct {
	mu      sync.Mutex
	items   int
	summary protocol.Summary
	closed  bool
}

// NewTally returns a tally for an operation of items items.
func NewTally(items int) *Tally {
	return &Tally{items: items}
}

func (t *Tally) add(ok, failed, cancelled int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.OK += ok
	t.summary.Failed += failed
	t.summary.Cancelled += cancelled
}

// Summary returns the outcomes recorded so far.
func (t *Tally) Summary() protocol.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary
}

// Closed reports whether the terminal event has been emitted.
func (t *Tally) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// close marks the tally closed and returns the summary to emit. The second
// result is false when it was already closed. With fault set, items without
// an outcome are counted as failed, and an operation with nothing to account
// for still reports one failure.
func (t *Tally) close(fault bool) (protocol.Summary, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return protocol.Summary{}, false
	}
	t.closed = true
	s := t.summary
	if fault {
		s.Failed += max(t.items-s.Total(), 0)
		if s.Total() == 0 {
			s.Failed = 1
		}
	}
	return s, true
}

// Operation is the runtime context of one admitted start command.
type Operation struct {
	Scope   protocol.Scope
	Cancel  Canceller
	Emitter protocol.Emitter
	Tally   *Tally

	logger *slog.Logger
}

// NewOperation builds the operation context for cmd.
func NewOperation(cmd protocol.StartCommand, cancel Canceller, emitter protocol.Emitter, logger *slog.Logger) *Operation {
	scope := cmd.Scope()
	return &Operation{
		Scope:   scope,
		Cancel:  cancel,
		Emitter: emitter,
		Tally:   NewTally(cmd.ItemCount()),
		logger: logging.NewComponentLogger(logger, "pipeline").With(
			logging.String(logging.FieldOperationID, scope.ID()),
			logging.String(logging.FieldTaskKind, string(scope.OperationKind())),
		),
	}
}

// stopped reports whether work should halt at a safe point: the operation was
// cancelled or the worker is shutting down.
func (op *Operation) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || (op.Cancel != nil && op.Cancel.Cancelled())
}

// finish emits the terminal event from the recorded outcomes.
func (op *Operation) finish() {
	if summary, ok := op.Tally.close(false); ok {
		op.logger.Info("operation finished",
			logging.String(logging.FieldEventType, "operation_finished"),
			logging.Int("ok", summary.OK),
			logging.Int("failed", summary.Failed),
			logging.Int("cancelled", summary.Cancelled),
		)
		op.Emitter.Emit(protocol.OperationDone{Scope: op.Scope, Summary: summary})
	}
}

// FinishFault emits the terminal event after an unexpected failure, unless
// one was already emitted. It reports whether it emitted.
func (op *Operation) FinishFault() bool {
	summary, ok := op.Tally.close(true)
	if !ok {
		return false
	}
	op.Emitter.Emit(protocol.OperationDone{Scope: op.Scope, Summary: summary})
	return true
}

// cancelRemaining attributes n not-yet-started items to cancellation.
func (op *Operation) cancelRemaining(n int) {
	if n <= 0 {
		return
	}
	op.Tally.add(0, 0, n)
	op.logger.Info("operation cancelled",
		logging.String(logging.FieldEventType, "operation_cancelled"),
		logging.Int("remaining_items", n),
	)
}

// forEach runs fn for every input in order and then emits the terminal event.
func (op *Operation) forEach(ctx context.Context, inputs []string, fn func(context.Context, *job)) {
	for i, input := range inputs {
		if op.stopped(ctx) {
			op.cancelRemaining(len(inputs) - i)
			break
		}
		j := op.newJob(input)
		fn(services.WithJobID(ctx, j.id), j)
		if !j.settled {
			j.fail("Item finished without a result.")
		}
	}
	op.finish()
}

// job reports on one item.
type job struct {
	op      *Operation
	id      string
	input   string
	last    int
	settled bool
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func (op *Operation) newJob(input string) *job {
	id := textutil.JobID(input)
	return &job{
		op:      op,
		id:      id,
		input:   input,
		last:    -1,
		sampler: logging.NewProgressSampler(10),
		logger:  op.logger.With(logging.String(logging.FieldJobID, id)),
	}
}

// progress emits pct clamped to [0,100], dropping values that do not advance.
func (j *job) progress(pct int) {
	pct = min(max(pct, 0), 100)
	if pct <= j.last {
		return
	}
	j.last = pct
	if j.sampler.ShouldLog(pct, "") {
		j.logger.Debug("job progress", logging.Int("progress_pct", pct))
	}
	j.op.Emitter.Emit(protocol.JobProgress{Scope: j.op.Scope, JobID: j.id, ProgressPct: pct})
}

// log forwards a non-blank line.
func (j *job) log(stream protocol.Stream, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	j.op.Emitter.Emit(protocol.JobLog{Scope: j.op.Scope, JobID: j.id, Message: message, Stream: stream})
}

func (j *job) fail(message string) {
	if j.settled {
		return
	}
	j.settled = true
	j.op.Tally.add(0, 1, 0)
	logging.WarnWithContext(j.logger, "job failed", "job_failed",
		logging.String("input", j.input),
		logging.String("reason", message),
	)
	j.op.Emitter.Emit(protocol.JobError{Scope: j.op.Scope, JobID: j.id, Error: message})
}

func (j *job) done(outputPath string, artifacts map[string]any) {
	if j.settled {
		return
	}
	j.settled = true
	j.op.Tally.add(1, 0, 0)
	j.logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.String("output_path", outputPath),
	)
	j.op.Emitter.Emit(protocol.JobDone{Scope: j.op.Scope, JobID: j.id, OutputPath: outputPath, Artifacts: artifacts})
}

func (j *job) cancel() {
	if j.settled {
		return
	}
	j.settled = true
	j.op.cancelRemaining(1)
}
