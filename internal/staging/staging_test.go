package staging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aliyaal/internal/logging"
)

func TestNewCutDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "scratch")
	dir, err := NewCutDir(base)
	if err != nil {
		t.Fatalf("NewCutDir: %v", err)
	}
	if !filepath.IsAbs(dir) || filepath.Dir(dir) != base || !strings.HasPrefix(filepath.Base(dir), CutDirPrefix) {
		t.Fatalf("unexpected cut dir %s", dir)
	}
	other, err := NewCutDir(base)
	if err != nil || other == dir {
		t.Fatalf("expected a distinct directory, got %s (%v)", other, err)
	}
}

func TestRootDefaultsToSystemTemp(t *testing.T) {
	if Root("  ") != os.TempDir() {
		t.Fatalf("expected %s, got %s", os.TempDir(), Root(""))
	}
}

func TestCleanStaleMissingRoot(t *testing.T) {
	result := CleanStale(context.Background(), filepath.Join(t.TempDir(), "nope"), time.Hour, logging.NewNop())
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestCleanStaleRemovesOnlyOldCutDirectories(t *testing.T) {
	root := t.TempDir()
	old := time.Now().Add(-2 * time.Hour)

	mkdir := func(name string, mtime time.Time) string {
		path := filepath.Join(root, name)
		if err := os.Mkdir(path, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
		return path
	}
	oldCut := mkdir(CutDirPrefix+"old", old)
	recentCut := mkdir(CutDirPrefix+"recent", time.Now())
	foreign := mkdir("someone-else", old)

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != oldCut {
		t.Fatalf("unexpected removals %v", result.Removed)
	}
	for _, keep := range []string{recentCut, foreign} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("%s should still exist", keep)
		}
	}
}

func TestCleanStaleStopsWhenCancelled(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, CutDirPrefix+"x")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if result := CleanStale(ctx, root, time.Hour, logging.NewNop()); len(result.Removed) != 0 {
		t.Fatalf("expected no removals after cancel, got %v", result.Removed)
	}
}
