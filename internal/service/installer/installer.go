package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/domain/deploy"
	"github.com/greenpi/watering-deploy/internal/logger"
	"github.com/greenpi/watering-deploy/internal/service/common"
	"github.com/greenpi/watering-deploy/internal/system/build"
	"github.com/greenpi/watering-deploy/internal/system/health"
	"github.com/greenpi/watering-deploy/internal/system/pkgmgr"
	"github.com/greenpi/watering-deploy/internal/system/supervisor"
	"github.com/greenpi/watering-deploy/internal/system/usergroup"
)

// Installer brings a fresh host from "no service" to "service running under
// supervision". Steps run strictly in order; the first fatal result stops
// the run, matching the abrupt-termination semantics of a deploy script.
type Installer struct {
	cfg    *config.Config
	target deploy.Target

	sup      supervisor.Supervisor
	packages pkgmgr.Manager
	users    usergroup.Directory
	builder  build.Builder
	prober   *health.Prober

	// sleep is time.Sleep, injectable so tests do not wait out settle delays.
	sleep func(time.Duration)
}

// New wires an Installer from its collaborators.
func New(
	cfg *config.Config,
	sup supervisor.Supervisor,
	packages pkgmgr.Manager,
	users usergroup.Directory,
	builder build.Builder,
	prober *health.Prober,
) *Installer {
	return &Installer{
		cfg:      cfg,
		target:   cfg.Target(),
		sup:      sup,
		packages: packages,
		users:    users,
		builder:  builder,
		prober:   prober,
		sleep:    time.Sleep,
	}
}

// Run executes the installation sequence:
//  1. Check the project layout (no side effects before this passes).
//  2. Install system prerequisites.
//  3. Grant the runtime user hardware access.
//  4. Build the release binary.
//  5. Register the supervisor unit.
//  6. Enable and start the service.
//  7. Settle, then report status (advisory).
func (i *Installer) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Checking project layout", "dir", i.target.ProjectDir)

	// Checked before the lock marker is written: a configuration error must
	// leave zero side effects behind.
	if err := deploy.CheckManifest(i.target); err != nil {
		return err
	}

	lock, err := common.AcquireRunLock(ctx, i.target.ProjectDir)
	if err != nil {
		return err
	}

	defer lock.Release(ctx)

	logger.InfoKV(ctx, "Installing system prerequisites", "packages", i.cfg.Packages)

	if err := i.installPrerequisites(ctx); err != nil {
		return err
	}

	if err := i.grantHardwareAccess(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Building the release binary")

	if err := i.buildBinary(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Registering the supervisor unit", "service", i.target.ServiceName)

	if err := i.registerService(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Enabling and starting the service", "service", i.target.ServiceName)

	if err := i.startService(ctx); err != nil {
		return err
	}

	common.Settle(ctx, i.sup, i.cfg, i.sleep)
	common.Report(ctx, i.sup, i.prober, i.cfg)

	return nil
}

// installPrerequisites refreshes the package index and installs build
// dependencies. Re-running on a provisioned host is harmless.
func (i *Installer) installPrerequisites(ctx context.Context) error {
	if err := i.packages.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh package index: %w", err)
	}

	if err := i.packages.Install(ctx, i.cfg.Packages...); err != nil {
		return fmt.Errorf("install prerequisites: %w", err)
	}

	return nil
}

// grantHardwareAccess adds the runtime user to the hardware group unless the
// membership already exists, so repeated installs perform no mutation here.
func (i *Installer) grantHardwareAccess(ctx context.Context) error {
	group := i.cfg.HardwareGroup
	username := i.target.RuntimeUser

	exists, err := i.users.GroupExists(group)
	if err != nil {
		return fmt.Errorf("%w: %v", deploy.ErrPermissionSetup, err)
	}

	if !exists {
		return fmt.Errorf("%w: group %q does not exist on this host", deploy.ErrPermissionSetup, group)
	}

	member, err := i.users.IsMember(username, group)
	if err != nil {
		return fmt.Errorf("%w: %v", deploy.ErrPermissionSetup, err)
	}

	if member {
		logger.InfoKV(ctx, "User already has hardware access", "user", username, "group", group)
		return nil
	}

	logger.InfoKV(ctx, "Granting hardware access", "user", username, "group", group)

	if err := i.users.AddToGroup(ctx, username, group); err != nil {
		return fmt.Errorf("%w: %v", deploy.ErrPermissionSetup, err)
	}

	logger.Warnf(ctx, "The %s group grant takes effect after %s logs in again", group, username)

	return nil
}

// buildBinary builds the artifact. On failure nothing has been registered
// yet, so there is no running service to roll back.
func (i *Installer) buildBinary(ctx context.Context) error {
	result, err := i.builder.Build(ctx, i.target)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if !result.Succeeded {
		if result.Output != "" {
			logger.Debug(ctx, result.Output)
		}

		return build.AsError(result)
	}

	logger.InfoKV(ctx, "Build produced the artifact", "artifact", result.ArtifactPath)

	return nil
}

// registerService writes the unit definition and reloads the unit cache.
// Re-writing the same definition is expected on re-install.
func (i *Installer) registerService(ctx context.Context) error {
	spec := deploy.NewUnitSpec(i.target, i.cfg.RestartDelay)

	if err := i.sup.RegisterUnit(ctx, i.target.ServiceName, spec); err != nil {
		return fmt.Errorf("%w: %v", deploy.ErrSupervisor, err)
	}

	if err := i.sup.ReloadUnits(ctx); err != nil {
		return fmt.Errorf("%w: %v", deploy.ErrSupervisor, err)
	}

	return nil
}

// startService enables boot-time start and starts the service now.
func (i *Installer) startService(ctx context.Context) error {
	if err := i.sup.Enable(ctx, i.target.ServiceName); err != nil {
		return fmt.Errorf("%w: %v", deploy.ErrSupervisor, err)
	}

	if err := i.sup.Start(ctx, i.target.ServiceName); err != nil {
		return fmt.Errorf("%w: %v", deploy.ErrSupervisor, err)
	}

	return nil
}
