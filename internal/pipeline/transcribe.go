package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"aliyaal/internal/logging"
	"aliyaal/internal/procexec"
	"aliyaal/internal/protocol"
	"aliyaal/internal/services/yap"
	"aliyaal/internal/subtitles"
)

// Transcribe writes an SRT sidecar next to every input with yap.
func (p *Pipelines) Transcribe(ctx context.Context, op *Operation, cmd protocol.StartTranscriptionBatch) error {
	op.logger.Info("transcription task started",
		logging.String(logging.FieldEventType, "operation_started"),
		logging.Int("items", len(cmd.InputPaths)),
		logging.String("yap_mode", cmd.YapMode),
	)
	op.forEach(ctx, cmd.InputPaths, p.transcribeItem)
	return nil
}

func (p *Pipelines) transcribeItem(ctx context.Context, j *job) {
	srt := subtitles.TranscriptPath(j.input)
	j.progress(yap.ProgressStart)

	res, err := p.yap.Transcribe(ctx, j.input, srt, func(line string) {
		j.log(protocol.StreamStdout, line)
		if update, ok := yap.ParseLine(line); ok {
			j.progress(yap.ScaleProgress(update.Percent))
		}
	})
	if err != nil {
		var startErr *procexec.StartError
		if errors.As(err, &startErr) {
			j.fail(fmt.Sprintf("Failed to start transcription command: %v", startErr.Err))
			return
		}
		j.fail(startFailure("yap", err))
		return
	}
	// Output is merged, so there is no separate stderr to quote.
	if res.ExitCode != 0 {
		j.fail(procexec.FailureMessage("yap", res.ExitCode, ""))
		return
	}
	if _, err := os.Stat(srt); err != nil {
		j.fail("Missing transcript output: " + srt)
		return
	}
	j.done(srt, nil)
}
