package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"aliyaal/internal/config"
	"aliyaal/internal/logging"
	"aliyaal/internal/procexec"
	"aliyaal/internal/protocol"
	"aliyaal/internal/services"
	"aliyaal/internal/services/demucs"
)

// RemoveMusic isolates the vocals of every input with demucs and remuxes them
// over the original video stream into cmd.OutputDir.
func (p *Pipelines) RemoveMusic(ctx context.Context, op *Operation, cmd protocol.StartRemoveMusicBatch) error {
	if err := os.MkdirAll(cmd.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "remove-music", "create output directory", cmd.OutputDir, err)
	}

	mode := p.computeMode(cmd.ComputeMode)
	device := p.device(mode)
	op.logger.Info("remove-music batch started",
		logging.String(logging.FieldEventType, "operation_started"),
		logging.Int("items", len(cmd.InputPaths)),
		logging.String("compute_mode", mode),
		logging.String("device", device),
		logging.String("output_dir", cmd.OutputDir),
	)

	op.forEach(ctx, cmd.InputPaths, func(ctx context.Context, j *job) {
		p.removeMusicItem(ctx, j, cmd.OutputDir, device)
	})
	return nil
}

// computeMode lets the configured default pin the device when the request
// leaves the choice to the worker.
func (p *Pipelines) computeMode(requested string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if requested != "" && requested != config.ComputeAuto {
		return requested
	}
	if configured := strings.ToLower(strings.TrimSpace(p.cfg.Separation.DefaultComputeMode)); configured != "" {
		return configured
	}
	return config.ComputeAuto
}

func (p *Pipelines) separationRoot(input string) string {
	if dir := strings.TrimSpace(p.cfg.Separation.WorkDir); dir != "" {
		return dir
	}
	return filepath.Dir(input)
}

func (p *Pipelines) removeMusicItem(ctx context.Context, j *job, outputDir, device string) {
	input := j.input
	root := p.separationRoot(input)
	defer p.cleanupSeparation(j, input, root)

	j.progress(demucs.ProgressStart)
	res, err := p.demucs.Separate(ctx, input, root, device, func(line string) {
		j.log(protocol.StreamStderr, line)
		if pct, ok := demucs.ParseProgress(line); ok {
			j.progress(demucs.ScaleProgress(pct))
		}
	})
	if err != nil {
		j.fail(startFailure("demucs", err))
		return
	}
	if res.ExitCode != 0 {
		j.fail(procexec.FailureMessage("demucs", res.ExitCode, res.Stderr))
		return
	}

	vocals := p.demucs.VocalsPath(input, root)
	if _, err := os.Stat(vocals); err != nil {
		j.fail("Extracted vocals not found: " + vocals)
		return
	}

	j.progress(demucs.ProgressEnd)
	name := filepath.Base(input)
	output := filepath.Join(outputDir, name)
	j.log(protocol.StreamStdout, "Running ffmpeg remux for "+name)
	res, err = p.ffmpeg.Remux(ctx, input, vocals, output)
	if err != nil {
		j.fail(startFailure("ffmpeg", err))
		return
	}
	if res.ExitCode != 0 {
		j.log(protocol.StreamStderr, res.Stderr)
		j.fail(procexec.FailureMessage("ffmpeg", res.ExitCode, res.Stderr))
		return
	}
	j.done(output, nil)
}

// cleanupSeparation removes the per-input stem directory and the model
// directory once nothing else is left in it.
func (p *Pipelines) cleanupSeparation(j *job, input, root string) {
	stemDir := p.demucs.StemDir(input, root)
	if err := os.RemoveAll(stemDir); err != nil {
		logging.WarnWithContext(j.logger, "separation cleanup failed", "cleanup_failed",
			logging.String("path", stemDir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "intermediate stems left on disk"),
		)
	}
	modelDir := p.demucs.ModelDir(root)
	if entries, err := os.ReadDir(modelDir); err == nil && len(entries) == 0 {
		_ = os.Remove(modelDir)
	}
}
