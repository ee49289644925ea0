package logs

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func writeLog(t *testing.T, path, content string, appendTo bool) {
	t.Helper()
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendTo {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, path string, opts TailOptions) []string {
	t.Helper()
	var lines []string
	if err := Tail(context.Background(), path, opts, func(line string) { lines = append(lines, line) }); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	return lines
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.log")
	writeLog(t, path, "one\ntwo\r\nthree\nfour\npartial", false)

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 2, want: []string{"three", "four"}},
		{limit: 10, want: []string{"one", "two", "three", "four"}},
		{limit: 0, want: nil},
	}
	for _, tt := range tests {
		if got := collect(t, path, TailOptions{Limit: tt.limit}); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("limit %d: got %q, want %q", tt.limit, got, tt.want)
		}
	}
}

func TestTailMissingFile(t *testing.T) {
	if got := collect(t, filepath.Join(t.TempDir(), "nope.log"), TailOptions{Limit: 5}); len(got) != 0 {
		t.Fatalf("expected no lines, got %q", got)
	}
}

func TestTailFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.log")
	writeLog(t, path, `{"msg":"a","operation_id":"b1","job_id":"clip"}
{"msg":"b","operation_id":"b2","component":"worker"}
not json
{"msg":"c","operation_id":"b1","job_id":"other"}
`, false)

	got := collect(t, path, TailOptions{Limit: 10, Filter: Filter{OperationID: "b1"}})
	if len(got) != 2 {
		t.Fatalf("operation filter: %q", got)
	}
	got = collect(t, path, TailOptions{Limit: 10, Filter: Filter{OperationID: "b1", JobID: "clip"}})
	if len(got) != 1 || got[0] != `{"msg":"a","operation_id":"b1","job_id":"clip"}` {
		t.Fatalf("job filter: %q", got)
	}
	got = collect(t, path, TailOptions{Limit: 10, Filter: Filter{Component: "worker"}})
	if len(got) != 1 || got[0] != `{"msg":"b","operation_id":"b2","component":"worker"}` {
		t.Fatalf("component filter: %q", got)
	}
}

func TestTailFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.log")
	writeLog(t, path, "old\n", false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		lines []string
	)
	seen := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), lines...)
	}
	done := make(chan error, 1)
	go func() {
		done <- Tail(ctx, path, TailOptions{Limit: 1, Follow: true, Poll: 5 * time.Millisecond}, func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		})
	}()

	waitFor := func(want []string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if reflect.DeepEqual(seen(), want) {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("lines = %q, want %q", seen(), want)
	}

	waitFor([]string{"old"})
	writeLog(t, path, "new\npart", true)
	waitFor([]string{"old", "new"})
	writeLog(t, path, "ial\n", true)
	waitFor([]string{"old", "new", "partial"})

	// Truncation restarts from the top.
	writeLog(t, path, "fresh\n", false)
	waitFor([]string{"old", "new", "partial", "fresh"})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Tail returned %v", err)
	}
}
