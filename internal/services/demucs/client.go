package demucs

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"aliyaal/internal/config"
	"aliyaal/internal/procexec"
)

// Progress window occupied by separation within a remove-music job.
const (
	ProgressStart = 5
	ProgressEnd   = 65
)

var progressPattern = regexp.MustCompile(`(\d{1,3})%\|`)

// Client runs demucs against one input at a time.
type Client struct {
	binary string
	model  string
	stem   string
	ext    string
	jobs   int
	exec   procexec.Executor
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec procexec.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// New constructs a demucs client from the separation settings.
func New(binary string, sep config.Separation, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("demucs binary required")
	}
	client := &Client{
		binary: binary,
		model:  fallback(sep.Model, "htdemucs"),
		stem:   fallback(sep.Stem, "vocals"),
		ext:    strings.TrimPrefix(fallback(sep.VocalsExt, "wav"), "."),
		jobs:   sep.Jobs,
		exec:   procexec.NewExecutor(),
	}
	if client.jobs <= 0 {
		client.jobs = 2
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary reports the executable the client invokes.
func (c *Client) Binary() string { return c.binary }

// Args returns the demucs argument vector for input, writing under root.
func (c *Client) Args(input, root, device string) []string {
	return []string{
		"--two-stems=" + c.stem,
		"-j", strconv.Itoa(c.jobs),
		"--device", device,
		input,
		"-o", root,
	}
}

// ModelDir is the directory demucs creates under root for the model.
func (c *Client) ModelDir(root string) string {
	return filepath.Join(root, c.model)
}

// StemDir is the per-input directory holding the separated tracks.
func (c *Client) StemDir(input, root string) string {
	base := filepath.Base(input)
	return filepath.Join(c.ModelDir(root), strings.TrimSuffix(base, filepath.Ext(base)))
}

// VocalsPath is where demucs writes the isolated stem for input.
func (c *Client) VocalsPath(input, root string) string {
	return filepath.Join(c.StemDir(input, root), c.stem+"."+c.ext)
}

// Separate runs demucs for input. Every stderr line is passed to onLine.
// A non-zero exit is reported through the result, not the error.
func (c *Client) Separate(ctx context.Context, input, root, device string, onLine func(line string)) (procexec.Result, error) {
	return c.exec.Run(ctx, procexec.Request{
		Binary: c.binary,
		Args:   c.Args(input, root, device),
		OnLine: func(stream procexec.Stream, line string) {
			if stream == procexec.Stderr && onLine != nil {
				onLine(line)
			}
		},
		SkipTail: isProgressLine,
	})
}

func isProgressLine(line string) bool {
	_, ok := ParseProgress(line)
	return ok
}

// ParseProgress extracts the highest percentage marker in line.
func ParseProgress(line string) (int, bool) {
	best, found := 0, false
	for _, match := range progressPattern.FindAllStringSubmatch(line, -1) {
		value, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		value = min(max(value, 0), 100)
		if !found || value > best {
			best, found = value, true
		}
	}
	return best, found
}

// ScaleProgress maps a demucs percentage onto the separation window.
func ScaleProgress(percent int) int {
	percent = min(max(percent, 0), 100)
	return ProgressStart + percent*(ProgressEnd-ProgressStart)/100
}

func fallback(value, def string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return def
}
