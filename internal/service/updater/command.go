package updater

import (
	"context"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/logger"
	"github.com/greenpi/watering-deploy/internal/system/build"
	"github.com/greenpi/watering-deploy/internal/system/command"
	"github.com/greenpi/watering-deploy/internal/system/health"
	"github.com/greenpi/watering-deploy/internal/system/supervisor"
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// Run executes the updater lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "watering-update")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	runner := command.ExecRunner{}

	up := New(cfg,
		supervisor.NewSystemd(runner),
		build.NewCargo(runner, cfg.BuildFeatures),
		health.NewProber(),
	)

	if err := up.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Update failed", "error", err)
		return err
	}

	logger.Info(ctx, "Update completed")

	return nil
}
