package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aliyaal/internal/config"
	"aliyaal/internal/device"
	"aliyaal/internal/logging"
	"aliyaal/internal/moderation"
	"aliyaal/internal/procexec"
	"aliyaal/internal/protocol"
	"aliyaal/internal/services"
	"aliyaal/internal/services/demucs"
	"aliyaal/internal/services/ffmpeg"
	"aliyaal/internal/services/yap"
)

// Pipelines runs start commands. One value serves every operation; it holds
// no per-operation state.
type Pipelines struct {
	cfg    *config.Config
	demucs *demucs.Client
	ffmpeg *ffmpeg.Client
	yap    *yap.Client
	engine *moderation.Engine
	device func(mode string) string
	now    func() time.Time
	logger *slog.Logger
}

type options struct {
	exec   procexec.Executor
	device func(string) string
	now    func() time.Time
	engine *moderation.Engine
}

// Option configures Pipelines.
type Option func(*options)

// WithExecutor runs every tool through exec (primarily for tests).
func WithExecutor(exec procexec.Executor) Option {
	return func(o *options) { o.exec = exec }
}

// WithDeviceResolver overrides compute device resolution.
func WithDeviceResolver(fn func(mode string) string) Option {
	return func(o *options) { o.device = fn }
}

// WithClock overrides the clock stamped into analysis sidecars.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithEngine replaces the moderation engine.
func WithEngine(engine *moderation.Engine) Option {
	return func(o *options) { o.engine = engine }
}

// New wires the tool clients and moderation engine from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipelines, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	o := options{device: device.Resolve, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	demucsClient, err := demucs.New(cfg.Tools.Demucs, cfg.Separation, demucs.WithExecutor(o.exec))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init demucs", "", err)
	}
	ffmpegClient, err := ffmpeg.New(cfg.Tools.FFmpeg, cfg.Remux, cfg.Cut, ffmpeg.WithExecutor(o.exec))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init ffmpeg", "", err)
	}
	yapClient, err := yap.New(cfg.Tools.Yap, yap.WithExecutor(o.exec))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init yap", "", err)
	}

	engine := o.engine
	if engine == nil {
		engine, err = loadEngine(cfg.Moderation.CatalogPath)
		if err != nil {
			return nil, err
		}
	}

	return &Pipelines{
		cfg:    cfg,
		demucs: demucsClient,
		ffmpeg: ffmpegClient,
		yap:    yapClient,
		engine: engine,
		device: o.device,
		now:    o.now,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

func loadEngine(catalogPath string) (*moderation.Engine, error) {
	engine, err := moderation.OpenEngine(catalogPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "load moderation catalog", catalogPath, err)
	}
	return engine, nil
}

// Dispatch runs the pipeline matching cmd. A returned error means the
// pipeline could not account for its items; per-item failures are reported
// through events instead.
func (p *Pipelines) Dispatch(ctx context.Context, op *Operation, cmd protocol.StartCommand) error {
	ctx = services.WithOperationID(ctx, op.Scope.ID())
	ctx = services.WithTaskKind(ctx, string(op.Scope.OperationKind()))
	switch c := cmd.(type) {
	case protocol.StartRemoveMusicBatch:
		return p.RemoveMusic(ctx, op, c)
	case protocol.StartTranscriptionBatch:
		return p.Transcribe(ctx, op, c)
	case protocol.StartFlagBatch:
		return p.Flag(ctx, op, c)
	case protocol.StartCutJob:
		return p.Cut(ctx, op, c)
	default:
		return services.Wrap(services.ErrValidation, "pipeline", "dispatch", fmt.Sprintf("unsupported command %q", cmd.CommandType()), nil)
	}
}
