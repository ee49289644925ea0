package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	logDir     string
	binDir     string
}

// setupCLITestEnv writes a config whose tools point at stub scripts. Tools
// named in missing are pointed at a path that does not exist.
func setupCLITestEnv(t *testing.T, missing ...string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"AIYAAL_FFMPEG_PATH", "AIYAAL_DEMUCS_PATH", "AIYAAL_YAP_PATH"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "aliyaal.toml"),
		logDir:     filepath.Join(base, "logs"),
		binDir:     filepath.Join(base, "bin"),
	}
	if err := os.MkdirAll(env.binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	tools := map[string]string{}
	for _, name := range []string{"ffmpeg", "demucs", "yap"} {
		path := filepath.Join(env.binDir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
		tools[name] = path
	}
	for _, name := range missing {
		tools[name] = filepath.Join(env.binDir, "missing-"+name)
	}

	content := fmt.Sprintf(`[paths]
log_dir = %q
temp_dir = %q

[tools]
ffmpeg = %q
demucs = %q
yap = %q

[separation]
default_compute_mode = "cpu"

[logging]
level = "error"
file = false
`, env.logDir, filepath.Join(base, "tmp"), tools["ffmpeg"], tools["demucs"], tools["yap"])
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}

// decodeLines parses every stdout line as a JSON object.
func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("stdout line is not JSON: %q (%v)", line, err)
		}
		events = append(events, ev)
	}
	return events
}
