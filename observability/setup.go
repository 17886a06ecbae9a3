package observability

import (
	"context"
	"errors"

	"github.com/amobagan/nutristream/logger"
)

// Shutdown flushes and stops the providers installed by Setup.
type Shutdown func(ctx context.Context) error

// Setup installs tracing and metrics from cfg. A disabled config leaves the
// global no-op providers in place and returns a no-op Shutdown.
func Setup(ctx context.Context, cfg Config, res Resource, log *logger.Logger) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()

	tp, err := InitTracer(ctx, TracerConfig{
		Resource:   res,
		Endpoint:   cfg.Endpoint,
		Insecure:   cfg.Insecure,
		SampleRate: cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	mp, err := InitMeter(ctx, MeterConfig{
		Resource: res,
		Endpoint: cfg.Endpoint,
		Insecure: cfg.Insecure,
		Interval: cfg.ExportInterval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	log.Info("telemetry initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
		"interval", cfg.ExportInterval.String(),
	))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
