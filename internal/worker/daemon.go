package worker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"aliyaal/internal/logging"
	"aliyaal/internal/pipeline"
	"aliyaal/internal/protocol"
	"aliyaal/internal/services"
)

// Status messages sent to the host.
const (
	msgBooted   = "Worker booted and ready."
	msgReady    = "Worker ready for next batch."
	msgConflict = "An operation is already running. Wait for completion before starting another task."
)

const defaultMaxLineBytes = 4 << 20

// Dispatcher runs the pipeline for an admitted start command.
type Dispatcher interface {
	Dispatch(ctx context.Context, op *pipeline.Operation, cmd protocol.StartCommand) error
}

// Daemon is the command loop.
type Daemon struct {
	admission    *Admission
	dispatcher   Dispatcher
	emitter      protocol.Emitter
	logger       *slog.Logger
	maxLineBytes int

	wg sync.WaitGroup
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithMaxLineBytes bounds the size of one inbound line.
func WithMaxLineBytes(n int) Option {
	return func(d *Daemon) {
		if n > 0 {
			d.maxLineBytes = n
		}
	}
}

// New constructs a daemon.
func New(dispatcher Dispatcher, emitter protocol.Emitter, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if dispatcher == nil || emitter == nil {
		return nil, errors.New("daemon requires a dispatcher and an emitter")
	}
	d := &Daemon{
		admission:    NewAdmission(),
		dispatcher:   dispatcher,
		emitter:      emitter,
		logger:       logging.NewComponentLogger(logger, "worker"),
		maxLineBytes: defaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Admission exposes the daemon's admission controller.
func (d *Daemon) Admission() *Admission { return d.admission }

type inbound struct {
	line    []byte
	tooLong bool
}

// Run announces readiness and processes commands from in until EOF, then
// waits for the in-flight operation. ctx bounds the lifetime of every tool
// process; when it ends Run stops reading and returns ctx.Err() once the
// in-flight operation has wound down.
func (d *Daemon) Run(ctx context.Context, in io.Reader) error {
	d.status(protocol.StatusReady, msgBooted)
	d.logger.Info("worker ready",
		logging.String(logging.FieldEventType, "worker_ready"),
		logging.Int("max_line_bytes", d.maxLineBytes),
	)

	lines := make(chan inbound)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		readErr <- readLines(in, d.maxLineBytes, func(line []byte, tooLong bool) bool {
			select {
			case lines <- inbound{line: bytes.Clone(line), tooLong: tooLong}:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("worker stopping", logging.String("reason", context.Cause(ctx).Error()))
			d.Wait()
			return ctx.Err()
		case msg, ok := <-lines:
			if !ok {
				err := <-readErr
				d.Wait()
				if err != nil {
					return fmt.Errorf("read commands: %w", err)
				}
				d.logger.Info("input closed; worker exiting", logging.String(logging.FieldEventType, "worker_exit"))
				return nil
			}
			d.handleLine(ctx, msg)
		}
	}
}

func (d *Daemon) handleLine(ctx context.Context, msg inbound) {
	if msg.tooLong {
		d.rejectLine(fmt.Sprintf("line exceeds %d bytes", d.maxLineBytes))
		return
	}
	text := bytes.TrimSpace(msg.line)
	if len(text) == 0 {
		return
	}
	cmd, err := protocol.Decode(text)
	if err != nil {
		d.rejectLine(err.Error())
		return
	}
	d.Submit(ctx, cmd)
}

func (d *Daemon) rejectLine(reason string) {
	logging.WarnWithContext(d.logger, "invalid command", "invalid_command",
		logging.String("reason", reason),
		logging.String(logging.FieldErrorHint, "fix the request payload and resubmit"),
		logging.String(logging.FieldImpact, "line ignored"),
	)
	d.status(protocol.StatusError, "Invalid command: "+reason)
}

// Submit handles one decoded command. Start commands return as soon as the
// pipeline goroutine is launched.
func (d *Daemon) Submit(ctx context.Context, cmd protocol.Command) {
	// Start commands also satisfy CancelCommand, so they are matched first.
	switch c := cmd.(type) {
	case protocol.StartCommand:
		d.start(ctx, c)
	case protocol.CancelCommand:
		d.cancel(c)
	}
}

// Wait blocks until the in-flight operation, if any, has finished.
func (d *Daemon) Wait() {
	d.wg.Wait()
}

func (d *Daemon) start(ctx context.Context, cmd protocol.StartCommand) {
	scope := cmd.Scope()
	ticket, ok := d.admission.TryReserve(scope.ID())
	if !ok {
		active, _ := d.admission.Active()
		logging.WarnWithContext(d.logger, "operation rejected; another is running", "admission_conflict",
			logging.String(logging.FieldOperationID, scope.ID()),
			logging.String("active_operation", active),
			logging.String(logging.FieldImpact, "request completed as cancelled"),
			logging.String(logging.FieldErrorHint, "wait for the ready status before starting another task"),
		)
		d.status(protocol.StatusError, msgConflict)
		d.emitter.Emit(protocol.OperationDone{Scope: scope, Summary: protocol.Summary{Cancelled: cmd.ItemCount()}})
		return
	}

	runID := uuid.NewString()
	runCtx := services.WithRunID(ctx, runID)
	op := pipeline.NewOperation(cmd, ticket.Token(), d.emitter, logging.WithContext(runCtx, d.logger))

	d.status(protocol.StatusStarting, startingMessage(scope))
	d.logger.Info("operation admitted",
		logging.String(logging.FieldEventType, "operation_admitted"),
		logging.String(logging.FieldOperationID, scope.ID()),
		logging.String(logging.FieldTaskKind, string(scope.OperationKind())),
		logging.String(logging.FieldRunID, runID),
		logging.Int("items", cmd.ItemCount()),
	)

	d.wg.Add(1)
	go d.execute(runCtx, ticket, op, cmd)
}

func startingMessage(scope protocol.Scope) string {
	if scope.OperationKind() == protocol.KindRemoveMusic {
		return fmt.Sprintf("Running batch %s.", scope.ID())
	}
	return fmt.Sprintf("Running %s task %s.", scope.OperationKind(), scope.ID())
}

func (d *Daemon) execute(ctx context.Context, ticket *Ticket, op *pipeline.Operation, cmd protocol.StartCommand) {
	defer d.wg.Done()
	defer func() {
		ticket.Release()
		d.status(protocol.StatusReady, msgReady)
	}()

	err := d.dispatch(ctx, op, cmd)
	if err == nil && !op.Tally.Closed() {
		err = services.Wrap(services.ErrFault, "worker", "dispatch", "pipeline returned without a summary", nil)
	}
	if err == nil {
		return
	}
	op.FinishFault()
	logging.ErrorWithContext(logging.WithContext(ctx, d.logger), "operation failed", "operation_fault",
		logging.String(logging.FieldOperationID, op.Scope.ID()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
	)
	d.status(protocol.StatusError, "Unhandled worker failure: "+err.Error())
}

// dispatch runs the pipeline, turning a panic into an error.
func (d *Daemon) dispatch(ctx context.Context, op *pipeline.Operation, cmd protocol.StartCommand) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", services.ErrFault, r)
		}
	}()
	return d.dispatcher.Dispatch(ctx, op, cmd)
}

func (d *Daemon) cancel(cmd protocol.CancelCommand) {
	scope := cmd.Scope()
	if !d.admission.SignalCancel(scope.ID()) {
		d.status(protocol.StatusError, fmt.Sprintf("No active %s found for cancel request: %s.", scope.Noun(), scope.ID()))
		return
	}
	d.logger.Info("cancellation requested",
		logging.String(logging.FieldEventType, "cancel_requested"),
		logging.String(logging.FieldOperationID, scope.ID()),
	)
	d.status(protocol.StatusStarting, fmt.Sprintf("Cancellation requested for %s %s.", scope.Noun(), scope.ID()))
}

func (d *Daemon) status(status protocol.Status, message string) {
	d.emitter.Emit(protocol.WorkerStatus{Status: status, Message: message})
}

// readLines calls fn for every newline-terminated line of r (and a final
// unterminated one). Lines longer than limit are reported with tooLong set
// and their content dropped. Reading stops early when fn returns false.
func readLines(r io.Reader, limit int, fn func(line []byte, tooLong bool) bool) error {
	br := bufio.NewReader(r)
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(bytes.TrimRight(buf, "\r\n"))+len(bytes.TrimRight(chunk, "\r\n")) > limit {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case err == nil:
			if !fn(buf, tooLong) {
				return nil
			}
			buf, tooLong = buf[:0], false
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) > 0 || tooLong {
				fn(buf, tooLong)
			}
			return nil
		default:
			return err
		}
	}
}
