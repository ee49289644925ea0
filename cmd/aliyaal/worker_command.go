package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"aliyaal/internal/config"
	"aliyaal/internal/deps"
	"aliyaal/internal/logging"
	"aliyaal/internal/pipeline"
	"aliyaal/internal/preflight"
	"aliyaal/internal/protocol"
	"aliyaal/internal/staging"
	"aliyaal/internal/worker"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the worker on stdin/stdout",
		Long: "Run the worker. Commands are read as JSON lines from stdin and events are " +
			"written as JSON lines to stdout; diagnostics go to stderr and the log file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runWorker(cmdCtx context.Context, ctx *commandContext, in io.Reader, out io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Worker.SingleInstance {
		lock, err := worker.AcquireInstanceLock(cfg.LockPath())
		if err != nil {
			if errors.Is(err, worker.ErrAlreadyRunning) {
				return fmt.Errorf("%w (lock held at %s)", err, cfg.LockPath())
			}
			return err
		}
		defer lock.Release()
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.WithSession(logger, uuid.NewString())
	logger.Info("aliyaal worker starting",
		logging.String(logging.FieldEventType, "worker_starting"),
		logging.String("config_path", ctx.configPath),
		logging.Bool("config_found", ctx.configSeen),
		logging.String("log_file", cfg.LogFilePath()),
	)
	reportPreflight(logger, cfg)
	staging.CleanStale(signalCtx, cfg.Paths.TempDir, staging.StaleAge, logger)

	pipelines, err := pipeline.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create pipelines: %w", err)
	}
	d, err := worker.New(pipelines, protocol.NewWriter(out, logger), logger,
		worker.WithMaxLineBytes(cfg.Worker.MaxLineBytes))
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	if err := d.Run(signalCtx, in); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("aliyaal worker shutting down")
			return nil
		}
		return err
	}
	return nil
}

// reportPreflight logs every failed readiness check. The worker still starts;
// jobs that need a missing tool fail individually.
func reportPreflight(logger *slog.Logger, cfg *config.Config) {
	for _, s := range deps.Missing(preflight.CheckSystemDeps(cfg)) {
		logging.WarnWithContext(logger, "dependency unavailable", "dependency_missing",
			logging.String("dependency", s.Name),
			logging.String("command", s.Command),
			logging.String("detail", s.Detail),
			logging.String(logging.FieldImpact, s.Description),
			logging.String(logging.FieldErrorHint, "install the binary or set its path under [tools]"),
		)
	}
	for _, r := range preflight.Failed(preflight.RunAll(cfg)) {
		logging.WarnWithContext(logger, "directory check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "create the directory or fix its permissions"),
		)
	}
}
