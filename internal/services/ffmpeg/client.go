package ffmpeg

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"aliyaal/internal/config"
	"aliyaal/internal/procexec"
)

// Client wraps ffmpeg invocations.
type Client struct {
	binary string
	remux  config.Remux
	cut    config.Cut
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

// New constructs an ffmpeg client.
func New(binary string, remux config.Remux, cut config.Cut, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	defaults := config.Default()
	if remux.AudioCodec == "" {
		remux.AudioCodec = defaults.Remux.AudioCodec
	}
	if remux.AudioBitrate == "" {
		remux.AudioBitrate = defaults.Remux.AudioBitrate
	}
	if cut.VideoCodec == "" {
		cut.VideoCodec = defaults.Cut.VideoCodec
	}
	if cut.Preset == "" {
		cut.Preset = defaults.Cut.Preset
	}
	if cut.CRF <= 0 {
		cut.CRF = defaults.Cut.CRF
	}
	if cut.AudioCodec == "" {
		cut.AudioCodec = defaults.Cut.AudioCodec
	}
	if cut.AudioBitrate == "" {
		cut.AudioBitrate = defaults.Cut.AudioBitrate
	}
	client := &Client{binary: binary, remux: remux, cut: cut, exec: procexec.NewExecutor()}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary reports the executable the client invokes.
func (c *Client) Binary() string { return c.binary }

// RemuxArgs keeps the video stream of video and replaces its audio with the
// first audio stream of audio.
func (c *Client) RemuxArgs(video, audio, output string) []string {
	return []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", c.remux.AudioCodec,
		"-b:a", c.remux.AudioBitrate,
		"-map", "0:v:0",
		"-map", "1:a:0",
		output,
	}
}

// SliceArgs re-encodes duration seconds of video starting at start.
func (c *Client) SliceArgs(video, output string, start, duration float64) []string {
	return []string{
		"-y",
		"-ss", FormatSeconds(start),
		"-i", video,
		"-t", FormatSeconds(duration),
		"-c:v", c.cut.VideoCodec,
		"-preset", c.cut.Preset,
		"-crf", strconv.Itoa(c.cut.CRF),
		"-c:a", c.cut.AudioCodec,
		"-b:a", c.cut.AudioBitrate,
		output,
	}
}

// ConcatArgs stream-copies the files listed in manifest into output.
func (c *Client) ConcatArgs(manifest, output string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		output,
	}
}

// Remux runs the remux invocation.
func (c *Client) Remux(ctx context.Context, video, audio, output string) (procexec.Result, error) {
	return c.run(ctx, c.RemuxArgs(video, audio, output))
}

// Slice runs one slice invocation.
func (c *Client) Slice(ctx context.Context, video, output string, start, duration float64) (procexec.Result, error) {
	return c.run(ctx, c.SliceArgs(video, output, start, duration))
}

// Concat runs the concat invocation.
func (c *Client) Concat(ctx context.Context, manifest, output string) (procexec.Result, error) {
	return c.run(ctx, c.ConcatArgs(manifest, output))
}

func (c *Client) run(ctx context.Context, args []string) (procexec.Result, error) {
	return c.exec.Run(ctx, procexec.Request{Binary: c.binary, Args: args})
}

// ConcatManifest renders the concat demuxer list for paths, one
// "file '<path>'" line per entry.
func ConcatManifest(paths []string) string {
	lines := make([]string, 0, len(paths))
	for _, path := range paths {
		lines = append(lines, "file '"+strings.ReplaceAll(path, "'", `'\''`)+"'")
	}
	return strings.Join(lines, "\n")
}

// FormatSeconds renders seconds without a trailing fraction when whole.
func FormatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
