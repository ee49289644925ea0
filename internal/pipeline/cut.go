package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aliyaal/internal/fileutil"
	"aliyaal/internal/logging"
	"aliyaal/internal/procexec"
	"aliyaal/internal/protocol"
	"aliyaal/internal/services"
	"aliyaal/internal/services/ffmpeg"
	"aliyaal/internal/staging"
	"aliyaal/internal/timecode"
)

// Progress checkpoints of a cut job. Slices share the span after the start.
const (
	cutProgressStart  = 5
	cutProgressSlices = 75
	cutProgressConcat = 95
	defaultCutSubdir  = "video_cleaned"
)

// CleanedOutputPath is where a cut of video is written: a sibling subdir
// holding a file of the same name.
func CleanedOutputPath(video, subdir string) string {
	if subdir = strings.TrimSpace(subdir); subdir == "" {
		subdir = defaultCutSubdir
	}
	return filepath.Join(filepath.Dir(video), subdir, filepath.Base(video))
}

// Cut keeps the requested ranges of one video and joins them, in order, into
// the cleaned output file.
func (p *Pipelines) Cut(ctx context.Context, op *Operation, cmd protocol.StartCutJob) error {
	j := op.newJob(cmd.VideoPath)
	if op.stopped(ctx) {
		j.cancel()
		op.finish()
		return nil
	}
	op.logger.Info("cut task started",
		logging.String(logging.FieldEventType, "operation_started"),
		logging.String("video", cmd.VideoPath),
		logging.Int("ranges", len(cmd.Ranges)),
		logging.String("output_mode", cmd.OutputMode),
	)
	p.cutVideo(services.WithJobID(ctx, j.id), op, j, cmd)
	if !j.settled {
		j.fail("Item finished without a result.")
	}
	op.finish()
	return nil
}

func (p *Pipelines) cutVideo(ctx context.Context, op *Operation, j *job, cmd protocol.StartCutJob) {
	if len(cmd.Ranges) == 0 {
		j.fail("No cut ranges provided.")
		return
	}
	ranges := make([]timecode.Range, 0, len(cmd.Ranges))
	for _, spec := range cmd.Ranges {
		r, err := timecode.ParseRange(spec.Start, spec.End)
		if err != nil {
			j.fail(fmt.Sprintf("Invalid range: %s-%s", spec.Start, spec.End))
			return
		}
		ranges = append(ranges, r)
	}

	video := cmd.VideoPath
	if info, err := os.Stat(video); err != nil || info.IsDir() {
		j.fail("Video file not found: " + video)
		return
	}

	output := CleanedOutputPath(video, p.cfg.Cut.OutputSubdir)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		j.fail(fmt.Sprintf("Failed to create output directory: %v", err))
		return
	}

	j.progress(cutProgressStart)
	workDir, err := p.cutWorkDir()
	if err != nil {
		j.fail(fmt.Sprintf("Failed to create working directory: %v", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logging.WarnWithContext(j.logger, "cut cleanup failed", "cleanup_failed",
				logging.String("path", workDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "slice files left on disk"),
			)
		}
	}()

	slices := make([]string, 0, len(ranges))
	for i, r := range ranges {
		if op.stopped(ctx) {
			j.cancel()
			return
		}
		slice := filepath.Join(workDir, fmt.Sprintf("slice-%d.mp4", i))
		res, err := p.ffmpeg.Slice(ctx, video, slice, r.Start, r.Duration())
		if err != nil {
			j.fail(startFailure("ffmpeg slice", err))
			return
		}
		if res.ExitCode != 0 {
			j.fail(procexec.FailureMessage("ffmpeg slice", res.ExitCode, res.Stderr))
			return
		}
		slices = append(slices, slice)
		j.progress(cutProgressStart + (i+1)*cutProgressSlices/len(ranges))
	}

	if len(slices) == 1 {
		if err := fileutil.MoveFile(slices[0], output); err != nil {
			j.fail(fmt.Sprintf("Failed to move slice into place: %v", err))
			return
		}
	} else {
		manifest := filepath.Join(workDir, "concat.txt")
		if err := os.WriteFile(manifest, []byte(ffmpeg.ConcatManifest(slices)), 0o644); err != nil {
			j.fail(fmt.Sprintf("Failed to write concat manifest: %v", err))
			return
		}
		res, err := p.ffmpeg.Concat(ctx, manifest, output)
		if err != nil {
			j.fail(startFailure("ffmpeg concat", err))
			return
		}
		if res.ExitCode != 0 {
			j.fail(procexec.FailureMessage("ffmpeg concat", res.ExitCode, res.Stderr))
			return
		}
		j.progress(cutProgressConcat)
	}

	j.log(protocol.StreamStdout, "Wrote cleaned video to "+output)
	j.done(output, nil)
}

// cutWorkDir creates the private directory holding slices and the manifest.
func (p *Pipelines) cutWorkDir() (string, error) {
	return staging.NewCutDir(p.cfg.Paths.TempDir)
}
