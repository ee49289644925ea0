package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	content, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	enabled := strings.Replace(string(content), "file = false", "file = true", 1)
	if err := os.WriteFile(env.configPath, []byte(enabled), 0o644); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(env.logDir, "worker.log")
	if err := os.MkdirAll(env.logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	records := `{"msg":"first","operation_id":"b1"}
{"msg":"second","operation_id":"b2"}
{"msg":"third","operation_id":"b1","job_id":"clip"}
`
	if err := os.WriteFile(logPath, []byte(records), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath, "")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "first") || !strings.Contains(out, "second") || !strings.Contains(out, "third") {
		t.Fatalf("unexpected tail:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--operation", "b1"}, env.configPath, "")
	if err != nil {
		t.Fatalf("logs --operation: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), "\n") != 1 || strings.Contains(out, "second") {
		t.Fatalf("unexpected filtered output:\n%s", out)
	}
}

func TestLogsCommandRequiresFileLogging(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"logs"}, env.configPath, ""); err == nil {
		t.Fatal("expected an error when file logging is disabled")
	}
}
