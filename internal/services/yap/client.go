package yap

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"aliyaal/internal/procexec"
	"aliyaal/internal/textutil"
)

// Progress window occupied by transcription within a job.
const (
	ProgressStart = 3
	ProgressSpan  = 90
)

// unbufferedEnv keeps Foundation-based tools from block-buffering stdout when
// it is a pipe.
const unbufferedEnv = "NSUnbufferedIO=YES"

var (
	progressPattern = regexp.MustCompile(`\[\s*(\d+)%\s*\]\s*(.+)`)
	completePhrases = []string{"Success", "Transcription written to"}
)

// Progress is one parsed yap status line.
type Progress struct {
	Percent int
	Message string
}

// Client runs yap transcriptions.
type Client struct {
	binary string
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

// New constructs a yap client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yap binary required")
	}
	client := &Client{binary: binary, exec: procexec.NewExecutor()}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary reports the executable the client invokes.
func (c *Client) Binary() string { return c.binary }

// Args returns the argument vector writing an SRT transcript of video to srt.
func Args(video, srt string) []string {
	return []string{"transcribe", video, "--srt", "-o", srt}
}

// Transcribe runs yap with stdout and stderr merged. Each line is passed to
// onLine with terminal escapes already removed.
func (c *Client) Transcribe(ctx context.Context, video, srt string, onLine func(line string)) (procexec.Result, error) {
	return c.exec.Run(ctx, procexec.Request{
		Binary:      c.binary,
		Args:        Args(video, srt),
		Env:         []string{unbufferedEnv},
		MergeOutput: true,
		OnLine: func(_ procexec.Stream, line string) {
			if onLine != nil {
				onLine(textutil.StripANSI(line))
			}
		},
	})
}

// ParseLine recognises "[ 42%] message" markers and the completion phrases
// yap prints once the transcript is written.
func ParseLine(line string) (Progress, bool) {
	cleaned := strings.TrimSpace(textutil.StripANSI(line))
	if cleaned == "" {
		return Progress{}, false
	}
	if match := progressPattern.FindStringSubmatch(cleaned); match != nil {
		percent, err := strconv.Atoi(match[1])
		if err == nil {
			return Progress{Percent: percent, Message: strings.TrimSpace(match[2])}, true
		}
	}
	for _, phrase := range completePhrases {
		if strings.Contains(cleaned, phrase) {
			return Progress{Percent: 100, Message: "Transcription complete"}, true
		}
	}
	return Progress{}, false
}

// ScaleProgress maps a yap percentage onto the transcription window.
func ScaleProgress(percent int) int {
	percent = min(max(percent, 0), 100)
	return ProgressStart + percent*ProgressSpan/100
}
