package protocol

// Kind identifies the pipeline an operation runs.
type Kind string

const (
	KindRemoveMusic   Kind = "remove_music"
	KindTranscription Kind = "transcription"
	KindFlag          Kind = "flag"
	KindCut           Kind = "cut"
)

// Scope identifies the operation an event belongs to. Remove-music batches are
// addressed by batchId; every other kind by taskId plus taskKind.
type Scope struct {
	BatchID  string `json:"batchId,omitempty"`
	TaskID   string `json:"taskId,omitempty"`
	TaskKind Kind   `json:"taskKind,omitempty"`
}

// NewScope builds the wire identity for an operation.
func NewScope(kind Kind, id string) Scope {
	if kind == KindRemoveMusic {
		return Scope{BatchID: id}
	}
	return Scope{TaskID: id, TaskKind: kind}
}

// ID returns the batch or task identifier.
func (s Scope) ID() string {
	if s.BatchID != "" {
		return s.BatchID
	}
	return s.TaskID
}

// OperationKind returns the pipeline kind the scope addresses.
func (s Scope) OperationKind() Kind {
	if s.BatchID != "" {
		return KindRemoveMusic
	}
	return s.TaskKind
}

// Noun is the word used for the operation in status messages.
func (s Scope) Noun() string {
	if s.OperationKind() == KindRemoveMusic {
		return "batch"
	}
	return "task"
}
