package protocol

import (
	"bytes"
	"encoding/json"
)

// Event type discriminators.
const (
	TypeWorkerStatus = "worker_status"
	TypeJobProgress  = "job_progress"
	TypeJobLog       = "job_log"
	TypeJobError     = "job_error"
	TypeJobDone      = "job_done"
	TypeBatchDone    = "batch_done"
	TypeTaskDone     = "task_done"
)

// Status is the worker-level state reported by WorkerStatus.
type Status string

const (
	StatusReady    Status = "ready"
	StatusStarting Status = "starting"
	StatusError    Status = "error"
)

// Stream names the output stream a JobLog line came from.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Event is one outbound message. The set of implementations is closed.
type Event interface {
	EventType() string
	isEvent()
}

// WorkerStatus reports worker readiness, operation start, and protocol errors.
type WorkerStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// JobProgress reports per-item progress in whole percent.
type JobProgress struct {
	Scope
	JobID       string `json:"jobId"`
	ProgressPct int    `json:"progressPct"`
}

// JobLog forwards one line of tool output or a pipeline note.
type JobLog struct {
	Scope
	JobID   string `json:"jobId"`
	Message string `json:"message"`
	Stream  Stream `json:"stream"`
}

// JobError reports a failed item.
type JobError struct {
	Scope
	JobID string `json:"jobId"`
	Error string `json:"error"`
}

// JobDone reports a completed item.
type JobDone struct {
	Scope
	JobID      string         `json:"jobId"`
	OutputPath string         `json:"outputPath,omitempty"`
	Artifacts  map[string]any `json:"artifacts,omitempty"`
}

// Summary is the terminal accounting for an operation.
type Summary struct {
	OK        int `json:"ok"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Total is the number of items the summary accounts for.
func (s Summary) Total() int { return s.OK + s.Failed + s.Cancelled }

// OperationDone is the terminal event of an operation. It serializes as
// batch_done for remove-music batches and task_done otherwise.
type OperationDone struct {
	Scope
	Summary Summary `json:"summary"`
}

func (WorkerStatus) EventType() string { return TypeWorkerStatus }
func (JobProgress) EventType() string  { return TypeJobProgress }
func (JobLog) EventType() string       { return TypeJobLog }
func (JobError) EventType() string     { return TypeJobError }
func (JobDone) EventType() string      { return TypeJobDone }

func (e OperationDone) EventType() string {
	if e.OperationKind() == KindRemoveMusic {
		return TypeBatchDone
	}
	return TypeTaskDone
}

func (WorkerStatus) isEvent()  {}
func (JobProgress) isEvent()   {}
func (JobLog) isEvent()        {}
func (JobError) isEvent()      {}
func (JobDone) isEvent()       {}
func (OperationDone) isEvent() {}

// Each MarshalJSON prepends the type discriminator. The local types drop the
// method set so the inner marshal does not recurse.

func marshalTagged(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (e WorkerStatus) MarshalJSON() ([]byte, error) {
	type plain WorkerStatus
	return marshalTagged(struct {
		Type string `json:"type"`
		plain
	}{e.EventType(), plain(e)})
}

func (e JobProgress) MarshalJSON() ([]byte, error) {
	type plain JobProgress
	if e.ProgressPct < 0 {
		e.ProgressPct = 0
	} else if e.ProgressPct > 100 {
		e.ProgressPct = 100
	}
	return marshalTagged(struct {
		Type string `json:"type"`
		plain
	}{e.EventType(), plain(e)})
}

func (e JobLog) MarshalJSON() ([]byte, error) {
	type plain JobLog
	return marshalTagged(struct {
		Type string `json:"type"`
		plain
	}{e.EventType(), plain(e)})
}

func (e JobError) MarshalJSON() ([]byte, error) {
	type plain JobError
	return marshalTagged(struct {
		Type string `json:"type"`
		plain
	}{e.EventType(), plain(e)})
}

func (e JobDone) MarshalJSON() ([]byte, error) {
	type plain JobDone
	return marshalTagged(struct {
		Type string `json:"type"`
		plain
	}{e.EventType(), plain(e)})
}

func (e OperationDone) MarshalJSON() ([]byte, error) {
	type plain OperationDone
	return marshalTagged(struct {
		Type string `json:"type"`
		plain
	}{e.EventType(), plain(e)})
}
