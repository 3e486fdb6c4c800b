package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/domain/deploy"
	"github.com/greenpi/watering-deploy/internal/logger"
	"github.com/greenpi/watering-deploy/internal/service/common"
	"github.com/greenpi/watering-deploy/internal/system/build"
	"github.com/greenpi/watering-deploy/internal/system/health"
	"github.com/greenpi/watering-deploy/internal/system/supervisor"
)

// Updater replaces a running service's binary with a freshly built one.
// Invariant: a failed build must not leave the service down — the previous
// binary is restarted before the failure is reported.
type Updater struct {
	cfg    *config.Config
	target deploy.Target

	sup     supervisor.Supervisor
	builder build.Builder
	prober  *health.Prober

	// sleep is time.Sleep, injectable so tests do not wait out settle delays.
	sleep func(time.Duration)
	// listProcesses is ps.Processes, injectable for the sweep tests.
	listProcesses func() ([]ps.Process, error)
}

// New wires an Updater from its collaborators.
func New(
	cfg *config.Config,
	sup supervisor.Supervisor,
	builder build.Builder,
	prober *health.Prober,
) *Updater {
	return &Updater{
		cfg:           cfg,
		target:        cfg.Target(),
		sup:           sup,
		builder:       builder,
		prober:        prober,
		sleep:         time.Sleep,
		listProcesses: ps.Processes,
	}
}

// Run executes the update sequence:
//  1. Check the project layout.
//  2. Stop the service so the rebuild does not race a live hardware handle.
//  3. Sweep leftover service processes.
//  4. Build the release binary.
//  5. Restart: the new binary on success, the previous one on failure.
//  6. Settle, then report status and recent logs (advisory).
func (u *Updater) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Checking project layout", "dir", u.target.ProjectDir)

	// Checked before the lock marker is written: a configuration error must
	// leave zero side effects behind.
	if err := deploy.CheckManifest(u.target); err != nil {
		return err
	}

	lock, err := common.AcquireRunLock(ctx, u.target.ProjectDir)
	if err != nil {
		return err
	}

	defer lock.Release(ctx)

	logger.InfoKV(ctx, "Stopping the service", "service", u.target.ServiceName)

	// The build does not depend on the service state; stopping first only
	// releases the hardware handles the running binary may hold.
	if err := u.sup.Stop(ctx, u.target.ServiceName); err != nil {
		logger.WarnKV(ctx, "Stop failed, continuing with the build", "error", err)
	}

	u.sweepProcesses(ctx)

	logger.Info(ctx, "Building the release binary")

	result, err := u.builder.Build(ctx, u.target)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if !result.Succeeded {
		return u.rollback(ctx, result)
	}

	logger.InfoKV(ctx, "Restarting the service with the new binary", "artifact", result.ArtifactPath)

	if err := u.sup.Start(ctx, u.target.ServiceName); err != nil {
		return fmt.Errorf("%w: %v", deploy.ErrSupervisor, err)
	}

	common.Settle(ctx, u.sup, u.cfg, u.sleep)
	common.Report(ctx, u.sup, u.prober, u.cfg)

	return nil
}

// rollback restarts the service with the previous, still-installed binary
// after a failed build, then reports the build failure as the run's outcome.
// A rollback restart that itself fails is the one condition escalated as
// urgent: the service is down with no known-good binary running.
func (u *Updater) rollback(ctx context.Context, result *deploy.BuildResult) error {
	if result.Output != "" {
		logger.Debug(ctx, result.Output)
	}

	logger.ErrorKV(ctx, "Build failed, restarting the service with the previous binary",
		"artifact", result.ArtifactPath)

	if err := u.sup.Start(ctx, u.target.ServiceName); err != nil {
		logger.ErrorKV(ctx, "SERVICE DOWN: rollback restart failed after a failed build",
			"service", u.target.ServiceName, "error", err)

		return fmt.Errorf("%w: %v", deploy.ErrRollbackFailed, err)
	}

	logger.WarnKV(ctx, "Service restarted with the previous binary", "service", u.target.ServiceName)

	common.Settle(ctx, u.sup, u.cfg, u.sleep)
	common.Report(ctx, u.sup, u.prober, u.cfg)

	return build.AsError(result)
}

// sweepProcesses kills any service process that survived the supervisor
// stop, so the rebuild does not race a live GPIO handle. Best effort: a
// failure to list or kill is logged and the run continues.
func (u *Updater) sweepProcesses(ctx context.Context) {
	binary := filepath.Base(u.target.BinaryPath)

	processes, err := u.listProcesses()
	if err != nil {
		logger.WarnKV(ctx, "Could not list processes", "error", err)
		return
	}

	self := os.Getpid()

	for _, p := range processes {
		if p.Pid() == self || p.Executable() != binary {
			continue
		}

		logger.WarnKV(ctx, "Service process survived the stop, killing it", "pid", p.Pid())

		proc, err := os.FindProcess(p.Pid())
		if err != nil {
			logger.WarnKV(ctx, "Could not open process", "pid", p.Pid(), "error", err)
			continue
		}

		if err := proc.Kill(); err != nil {
			logger.WarnKV(ctx, "Could not kill process", "pid", p.Pid(), "error", err)
		}
	}
}
