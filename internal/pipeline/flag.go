package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"aliyaal/internal/logging"
	"aliyaal/internal/moderation"
	"aliyaal/internal/protocol"
	"aliyaal/internal/subtitles"
)

// Progress checkpoints of a flag job.
const (
	flagProgressStart    = 5
	flagProgressParsed   = 40
	flagProgressAnalyzed = 80
)

// Flag runs the moderation engine over every input's subtitle sidecar and
// writes an analysis sidecar next to it.
func (p *Pipelines) Flag(ctx context.Context, op *Operation, cmd protocol.StartFlagBatch) error {
	settings := moderation.ParseSettings(cmd.Settings)
	op.logger.Info("flag task started",
		logging.String(logging.FieldEventType, "operation_started"),
		logging.Int("items", len(cmd.InputPaths)),
		logging.Int("custom_rules", len(settings.Rules)),
		logging.Int("custom_words", len(settings.ProfanityWords)),
	)
	op.forEach(ctx, cmd.InputPaths, func(_ context.Context, j *job) {
		p.flagItem(j, settings)
	})
	return nil
}

func (p *Pipelines) flagItem(j *job, settings moderation.Settings) {
	sidecars := subtitles.ResolveSidecars(j.input)
	j.progress(flagProgressStart)

	if _, err := os.Stat(sidecars.Subtitle); err != nil {
		j.fail("Missing subtitle sidecar. Run transcription first: " + sidecars.Subtitle)
		return
	}
	entries, err := subtitles.ParseFile(sidecars.Subtitle)
	if err != nil {
		j.fail(fmt.Sprintf("Failed reading subtitle file: %v", err))
		return
	}
	j.progress(flagProgressParsed)

	result := p.engine.Analyze(entries, settings)
	j.progress(flagProgressAnalyzed)

	analysis := moderation.NewAnalysis(result, filepath.Base(j.input), p.now())
	if err := moderation.WriteAnalysis(sidecars.Analysis, analysis); err != nil {
		j.fail(fmt.Sprintf("Failed writing analysis sidecar: %v", err))
		return
	}
	j.done(sidecars.Analysis, map[string]any{
		"flaggedCount": len(result.Flagged),
		"summary":      result.Summary,
	})
}
