package worker

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestAdmissionSingleFlight(t *testing.T) {
	a := NewAdmission()
	ticket, ok := a.TryReserve("b1")
	if !ok {
		t.Fatal("expected first reservation to succeed")
	}
	if _, ok := a.TryReserve("b2"); ok {
		t.Fatal("expected a different id to be refused while b1 is active")
	}
	if _, ok := a.TryReserve("b1"); ok {
		t.Fatal("expected the same id to be refused while active")
	}

	ticket.Release()
	ticket.Release()
	if _, ok := a.Active(); ok {
		t.Fatal("expected slot to be free after release")
	}
	if _, ok := a.TryReserve("b2"); !ok {
		t.Fatal("expected reservation after release")
	}
}

func TestAdmissionCancel(t *testing.T) {
	a := NewAdmission()
	if a.SignalCancel("missing") {
		t.Fatal("expected cancel of unknown id to fail")
	}
	ticket, _ := a.TryReserve("t1")
	if a.IsCancelled("t1") {
		t.Fatal("fresh reservation must not be cancelled")
	}
	if !a.SignalCancel("t1") {
		t.Fatal("expected cancel of active id to succeed")
	}
	if !a.IsCancelled("t1") || !ticket.Token().Cancelled() {
		t.Fatal("expected token to be set")
	}
	ticket.Release()
	if a.IsCancelled("t1") || a.SignalCancel("t1") {
		t.Fatal("released operation must not be addressable")
	}
}

func TestStaleTicketReleaseKeepsNewReservation(t *testing.T) {
	a := NewAdmission()
	first, _ := a.TryReserve("x")
	first.Release()
	second, ok := a.TryReserve("x")
	if !ok {
		t.Fatal("expected re-reservation")
	}
	first.Release()
	if id, ok := a.Active(); !ok || id != "x" {
		t.Fatal("stale release must not free the new reservation")
	}
	second.Release()
}

func TestAdmissionConcurrentReserve(t *testing.T) {
	a := NewAdmission()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, ok := a.TryReserve(string(rune('a' + i%26))); ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one reservation, got %d", wins.Load())
	}
}
