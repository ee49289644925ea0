package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"aliyaal/internal/testsupport"
)

const violentSRT = "1\n00:00:01,000 --> 00:00:02,500\nI will kill you\n\n2\n00:00:03,000 --> 00:00:04,000\nNice weather\n"

func TestModerateCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	srt := filepath.Join(env.baseDir, "clip.srt")
	testsupport.WriteText(t, srt, violentSRT)

	out, _, err := runCLI(t, []string{"moderate", "--json", srt}, env.configPath, "")
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	var reports []moderationReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(reports) != 1 || reports[0].Analysis == nil {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	flagged := reports[0].Analysis.Flagged
	if len(flagged) != 1 || flagged[0].Category != "violence" || flagged[0].StartTime != 1 {
		t.Fatalf("unexpected flags: %+v", flagged)
	}
	if testsupport.Exists(filepath.Join(env.baseDir, "clip.analysis.json")) {
		t.Fatal("sidecar must only be written with --write")
	}
}

func TestModerateCommandTableAndDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "videos")
	testsupport.WriteText(t, filepath.Join(dir, "a.mp4"), "video")
	testsupport.WriteText(t, filepath.Join(dir, "a.srt"), violentSRT)
	testsupport.WriteText(t, filepath.Join(dir, "notes.txt"), "ignored")

	out, _, err := runCLI(t, []string{"moderate", "--format", "table", "--write", dir}, env.configPath, "")
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	requireContains(t, out, "== a.mp4 ==")
	requireContains(t, out, "Flagged 1 subtitle item(s).")
	requireContains(t, out, "0:00:01.000")
	if !testsupport.Exists(filepath.Join(dir, "a.analysis.json")) {
		t.Fatal("expected --write to produce the sidecar")
	}
}

func TestModerateCommandCustomRules(t *testing.T) {
	env := setupCLITestEnv(t)
	srt := filepath.Join(env.baseDir, "clip.srt")
	testsupport.WriteText(t, srt, violentSRT)
	rules := filepath.Join(env.baseDir, "rules.yaml")
	testsupport.WriteText(t, rules, "rules:\n  - ruleId: weather\n    category: smalltalk\n    priority: low\n    reason: Talks about weather.\n    patterns: [weather]\n")

	out, _, err := runCLI(t, []string{"moderate", "--json", "--rules", rules, srt}, env.configPath, "")
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	var reports []moderationReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	flagged := reports[0].Analysis.Flagged
	if len(flagged) != 1 || flagged[0].RuleID != "weather" {
		t.Fatalf("unexpected flags: %+v", flagged)
	}
}

func TestModerateCommandMissingSubtitle(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "b.mov")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, []string{"moderate", "--json", video}, env.configPath, "")
	if err == nil {
		t.Fatal("expected an error for a video without subtitles")
	}
	var reports []moderationReport
	if jsonErr := json.Unmarshal([]byte(out), &reports); jsonErr != nil || reports[0].Error == "" {
		t.Fatalf("expected error report, got %s", out)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[float64]string{
		0:       "0:00:00.000",
		1.5:     "0:00:01.500",
		3723.25: "1:02:03.250",
		-4:      "0:00:00.000",
	}
	for in, want := range cases {
		if got := formatClock(in); got != want {
			t.Fatalf("formatClock(%v) = %q, want %q", in, got, want)
		}
	}
}
