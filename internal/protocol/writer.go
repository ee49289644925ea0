package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"aliyaal/internal/logging"
)

// Emitter accepts outbound events. Implementations must be safe for
// concurrent use.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(ev Event) { f(ev) }

// Writer serializes events as compact JSON, one per line. Each line is written
// with a single Write call under the writer lock.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
}

// NewWriter returns a Writer on out. Write failures are logged, not returned:
// a broken output channel must not abort pipeline work or cleanup.
func NewWriter(out io.Writer, logger *slog.Logger) *Writer {
	return &Writer{out: out, logger: logging.NewComponentLogger(logger, "protocol")}
}

// Encode renders an event as one line, including the trailing newline.
func Encode(ev Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Emit writes ev.
func (w *Writer) Emit(ev Event) {
	line, err := Encode(ev)
	if err != nil {
		logging.ErrorWithContext(w.logger, "encode event failed", "event_encode_failed",
			logging.String("event", ev.EventType()),
			logging.Error(err),
		)
		return
	}

	w.mu.Lock()
	_, err = w.out.Write(line)
	w.mu.Unlock()
	if err != nil {
		logging.WarnWithContext(w.logger, "write event failed", "event_write_failed",
			logging.String("event", ev.EventType()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "host did not receive the event"),
		)
	}
}
