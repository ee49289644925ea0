package fileutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMoveFileSameDevice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "slice-0.mp4")
	dst := filepath.Join(dir, "out", "clip.mp4")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err = %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "video" {
		t.Fatalf("unexpected destination content %q", got)
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := MoveFile(filepath.Join(dir, "absent"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	content := make([]byte, 64*1024)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(content) {
		t.Fatalf("size mismatch: %d vs %d", len(got), len(content))
	}
}

func TestReplaceExtAndHasExtension(t *testing.T) {
	if got := ReplaceExt("/v/clip.final.MOV", ".srt"); got != "/v/clip.final.srt" {
		t.Fatalf("ReplaceExt = %q", got)
	}
	if got := ReplaceExt("/v/noext", ".srt"); got != "/v/noext.srt" {
		t.Fatalf("ReplaceExt without ext = %q", got)
	}
	if !HasExtension("/v/clip.MOV", SupportedVideoExtensions) {
		t.Fatal("expected .MOV to be supported")
	}
	if HasExtension("/v/clip.mkv", SupportedVideoExtensions) {
		t.Fatal("expected .mkv to be unsupported")
	}
}

func TestDiscoverInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mov", "a.mp4", "notes.txt", ".hidden.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := DiscoverInputs(dir, SupportedVideoExtensions)
	if err != nil {
		t.Fatalf("DiscoverInputs: %v", err)
	}
	want := []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mov")}
	if !slices.Equal(got, want) {
		t.Fatalf("DiscoverInputs = %v, want %v", got, want)
	}

	single, err := DiscoverInputs(filepath.Join(dir, "a.mp4"), SupportedVideoExtensions)
	if err != nil || len(single) != 1 {
		t.Fatalf("single file discovery = %v, %v", single, err)
	}
}
