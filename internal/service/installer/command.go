package installer

import (
	"context"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/logger"
	"github.com/greenpi/watering-deploy/internal/system/build"
	"github.com/greenpi/watering-deploy/internal/system/command"
	"github.com/greenpi/watering-deploy/internal/system/health"
	"github.com/greenpi/watering-deploy/internal/system/pkgmgr"
	"github.com/greenpi/watering-deploy/internal/system/supervisor"
	"github.com/greenpi/watering-deploy/internal/system/usergroup"
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// Run executes the installer lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "watering-install")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	runner := command.ExecRunner{}

	inst := New(cfg,
		supervisor.NewSystemd(runner),
		pkgmgr.NewApt(runner),
		usergroup.NewOSDirectory(runner),
		build.NewCargo(runner, cfg.BuildFeatures),
		health.NewProber(),
	)

	if err := inst.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Installation failed", "error", err)
		return err
	}

	logger.Info(ctx, "Installation completed")

	return nil
}
