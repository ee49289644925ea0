package worker

import (
	"sync"
	"sync/atomic"
)

// Token is the cancellation flag of one operation. Pipelines poll it between
// items; setting it never interrupts a running tool.
type Token struct {
	cancelled atomic.Bool
}

// Cancel marks the operation as cancelled.
func (t *Token) Cancel() { t.cancelled.Store(true) }

// Cancelled reports whether cancellation was requested.
func (t *Token) Cancelled() bool { return t.cancelled.Load() }

// Admission is the single-flight gate. It maps the active operation id to its
// token; at most one entry exists at any time.
type Admission struct {
	mu     sync.Mutex
	active map[string]*Token
}

// NewAdmission returns an empty controller.
func NewAdmission() *Admission {
	return &Admission{active: make(map[string]*Token)}
}

// Ticket is the proof of a reservation.
type Ticket struct {
	admission *Admission
	id        string
	token     *Token
	once      sync.Once
}

// TryReserve claims the slot for id. It fails when any operation, including
// one with the same id, already holds it.
func (a *Admission) TryReserve(id string) (*Ticket, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.active) > 0 {
		return nil, false
	}
	token := &Token{}
	a.active[id] = token
	return &Ticket{admission: a, id: id, token: token}, true
}

// SignalCancel sets the token of the active operation id. It reports false
// when no such operation is active.
func (a *Admission) SignalCancel(id string) bool {
	a.mu.Lock()
	token, ok := a.active[id]
	a.mu.Unlock()
	if !ok {
		return false
	}
	token.Cancel()
	return true
}

// IsCancelled reports whether the active operation id has been cancelled.
func (a *Admission) IsCancelled(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	token, ok := a.active[id]
	return ok && token.Cancelled()
}

// Active returns the id holding the slot, if any.
func (a *Admission) Active() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id := range a.active {
		return id, true
	}
	return "", false
}

// ID returns the reserved operation id.
func (t *Ticket) ID() string { return t.id }

// Token returns the operation's cancellation token.
func (t *Ticket) Token() *Token { return t.token }

// Release frees the slot. Calling it more than once is harmless.
func (t *Ticket) Release() {
	t.once.Do(func() {
		t.admission.mu.Lock()
		defer t.admission.mu.Unlock()
		if t.admission.active[t.id] == t.token {
			delete(t.admission.active, t.id)
		}
	})
}
