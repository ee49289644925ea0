package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"aliyaal/internal/services"
)

// Command type discriminators.
const (
	TypeStartBatch              = "start_batch"
	TypeStartTranscriptionBatch = "start_transcription_batch"
	TypeStartFlagBatch          = "start_flag_batch"
	TypeStartCutJob             = "start_cut_job"
	TypeCancelBatch             = "cancel_batch"
	TypeCancelTask              = "cancel_task"
)

const (
	DefaultComputeMode = "auto"
	DefaultYapMode     = "auto"
	DefaultOutputMode  = "video_cleaned_default"
	DefaultCancelMode  = "stop_after_current"
)

// Command is one decoded inbound request. The set of implementations is
// closed; switch on the concrete type.
type Command interface {
	CommandType() string
	isCommand()
}

// StartCommand is a Command that starts an operation.
type StartCommand interface {
	Command
	Scope() Scope
	// ItemCount is the number of items the terminal summary accounts for.
	ItemCount() int
}

// CancelCommand is a Command that requests cancellation of an operation.
type CancelCommand interface {
	Command
	Scope() Scope
}

// StartRemoveMusicBatch isolates vocals for each input and remuxes them over
// the original video into OutputDir.
type StartRemoveMusicBatch struct {
	BatchID     string
	InputPaths  []string
	OutputDir   string
	ComputeMode string
}

// StartTranscriptionBatch writes an SRT sidecar for each input.
type StartTranscriptionBatch struct {
	TaskID     string
	InputPaths []string
	YapMode    string
}

// StartFlagBatch runs moderation over each input's subtitle sidecar.
type StartFlagBatch struct {
	TaskID     string
	InputPaths []string
	// Settings is the raw settings object, or nil when absent.
	Settings json.RawMessage
}

// CutRangeSpec is an unparsed range exactly as the caller supplied it.
type CutRangeSpec struct {
	Start string
	End   string
}

// StartCutJob removes everything outside Ranges from one video.
type StartCutJob struct {
	TaskID     string
	VideoPath  string
	Ranges     []CutRangeSpec
	OutputMode string
}

// CancelBatch asks the running remove-music batch to stop after its current item.
type CancelBatch struct {
	BatchID string
	Mode    string
}

// CancelTask asks the running task to stop after its current item.
type CancelTask struct {
	TaskID string
	Mode   string
}

func (StartRemoveMusicBatch) CommandType() string   { return TypeStartBatch }
func (StartTranscriptionBatch) CommandType() string { return TypeStartTranscriptionBatch }
func (StartFlagBatch) CommandType() string          { return TypeStartFlagBatch }
func (StartCutJob) CommandType() string             { return TypeStartCutJob }
func (CancelBatch) CommandType() string             { return TypeCancelBatch }
func (CancelTask) CommandType() string              { return TypeCancelTask }

func (StartRemoveMusicBatch) isCommand()   {}
func (StartTranscriptionBatch) isCommand() {}
func (StartFlagBatch) isCommand()          {}
func (StartCutJob) isCommand()             {}
func (CancelBatch) isCommand()             {}
func (CancelTask) isCommand()              {}

func (c StartRemoveMusicBatch) Scope() Scope   { return NewScope(KindRemoveMusic, c.BatchID) }
func (c StartTranscriptionBatch) Scope() Scope { return NewScope(KindTranscription, c.TaskID) }
func (c StartFlagBatch) Scope() Scope          { return NewScope(KindFlag, c.TaskID) }
func (c StartCutJob) Scope() Scope             { return NewScope(KindCut, c.TaskID) }
func (c CancelBatch) Scope() Scope             { return NewScope(KindRemoveMusic, c.BatchID) }

// Scope of a task cancel carries no kind; the daemon matches on the id alone.
func (c CancelTask) Scope() Scope { return Scope{TaskID: c.TaskID} }

func (c StartRemoveMusicBatch) ItemCount() int   { return len(c.InputPaths) }
func (c StartTranscriptionBatch) ItemCount() int { return len(c.InputPaths) }
func (c StartFlagBatch) ItemCount() int          { return len(c.InputPaths) }
func (c StartCutJob) ItemCount() int             { return 1 }

// DecodeError reports an inbound line that is not a valid command.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{services.ErrValidation, e.Err}
	}
	return []error{services.ErrValidation}
}

func decodeErr(format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// Decode parses one inbound line into a Command.
func Decode(line []byte) (Command, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(line, &payload); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON", Err: err}
	}
	if payload == nil {
		return nil, decodeErr("command must be a JSON object")
	}
	f := fields(payload)
	commandType, _ := f.optionalString("type", "")

	switch commandType {
	case TypeStartBatch:
		var c StartRemoveMusicBatch
		if err := firstErr(
			f.requiredString("batchId", &c.BatchID),
			f.stringList("inputPaths", &c.InputPaths),
			f.requiredString("outputDir", &c.OutputDir),
			f.optional("computeMode", DefaultComputeMode, &c.ComputeMode),
		); err != nil {
			return nil, err
		}
		return c, nil
	case TypeStartTranscriptionBatch:
		var c StartTranscriptionBatch
		if err := firstErr(
			f.requiredString("taskId", &c.TaskID),
			f.stringList("inputPaths", &c.InputPaths),
			f.optional("yapMode", DefaultYapMode, &c.YapMode),
		); err != nil {
			return nil, err
		}
		return c, nil
	case TypeStartFlagBatch:
		var c StartFlagBatch
		if err := firstErr(
			f.requiredString("taskId", &c.TaskID),
			f.stringList("inputPaths", &c.InputPaths),
			f.settings(&c.Settings),
		); err != nil {
			return nil, err
		}
		return c, nil
	case TypeStartCutJob:
		var c StartCutJob
		if err := firstErr(
			f.requiredString("taskId", &c.TaskID),
			f.requiredString("videoPath", &c.VideoPath),
			f.ranges(&c.Ranges),
			f.optional("outputMode", DefaultOutputMode, &c.OutputMode),
		); err != nil {
			return nil, err
		}
		return c, nil
	case TypeCancelBatch:
		var c CancelBatch
		if err := firstErr(
			f.requiredString("batchId", &c.BatchID),
			f.optional("mode", DefaultCancelMode, &c.Mode),
		); err != nil {
			return nil, err
		}
		return c, nil
	case TypeCancelTask:
		var c CancelTask
		if err := firstErr(
			f.requiredString("taskId", &c.TaskID),
			f.optional("mode", DefaultCancelMode, &c.Mode),
		); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, decodeErr("unsupported command type: %q", commandType)
	}
}

type fields map[string]json.RawMessage

// firstErr reports the first failed field check of a command.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (f fields) present(key string) bool {
	raw, ok := f[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (f fields) optionalString(key, fallback string) (string, error) {
	if !f.present(key) {
		return fallback, nil
	}
	var s string
	if err := json.Unmarshal(f[key], &s); err != nil {
		return "", decodeErr("%s must be a string", key)
	}
	return s, nil
}

func (f fields) requiredString(key string, dst *string) error {
	if !f.present(key) {
		return decodeErr("missing required field %s", key)
	}
	s, err := f.optionalString(key, "")
	if err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		return decodeErr("%s must not be empty", key)
	}
	*dst = s
	return nil
}

func (f fields) optional(key, fallback string, dst *string) error {
	s, err := f.optionalString(key, fallback)
	if err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		s = fallback
	}
	*dst = s
	return nil
}

func (f fields) stringList(key string, dst *[]string) error {
	if !f.present(key) {
		return decodeErr("missing required field %s", key)
	}
	var list []string
	if err := json.Unmarshal(f[key], &list); err != nil {
		return decodeErr("%s must be an array of strings", key)
	}
	if list == nil {
		list = []string{}
	}
	*dst = list
	return nil
}

func (f fields) settings(dst *json.RawMessage) error {
	if !f.present("settings") {
		return nil
	}
	raw := bytes.TrimSpace(f["settings"])
	if len(raw) == 0 || raw[0] != '{' {
		return decodeErr("settings must be an object")
	}
	*dst = append(json.RawMessage(nil), raw...)
	return nil
}

func (f fields) ranges(dst *[]CutRangeSpec) error {
	if !f.present("ranges") {
		*dst = []CutRangeSpec{}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(f["ranges"], &items); err != nil {
		return decodeErr("ranges must be an array")
	}
	out := make([]CutRangeSpec, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			return decodeErr("range must be an object")
		}
		start, errStart := scalarText(obj["start"])
		end, errEnd := scalarText(obj["end"])
		if errStart != nil || errEnd != nil {
			return decodeErr("range start and end must be strings or numbers")
		}
		out = append(out, CutRangeSpec{Start: start, End: end})
	}
	*dst = out
	return nil
}

// scalarText accepts a JSON string or number and returns it as text.
func scalarText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("missing")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return "", err
	}
	return n.String(), nil
}
