package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/greenpi/watering-deploy/internal/logger"
	"github.com/greenpi/watering-deploy/internal/system/command"
)

// Manager installs system prerequisites. Both operations are idempotent:
// re-running them on a provisioned host costs time, not correctness.
type Manager interface {
	// Refresh updates the package index.
	Refresh(ctx context.Context) error
	// Install installs the named packages.
	Install(ctx context.Context, packages ...string) error
}

// Apt drives the Debian package manager.
type Apt struct {
	runner command.Runner
}

// NewApt returns an apt-get backed Manager.
func NewApt(runner command.Runner) *Apt {
	return &Apt{runner: runner}
}

// Refresh updates the apt package index.
func (a *Apt) Refresh(ctx context.Context) error {
	out, err := a.runner.Run(ctx, "apt-get", "update", "-qq")
	if err != nil {
		return fmt.Errorf("apt-get update: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return nil
}

// Install installs the named packages non-interactively.
func (a *Apt) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}

	args := append([]string{"install", "-y"}, packages...)

	out, err := a.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		return fmt.Errorf("apt-get install: %w: %s", err, strings.TrimSpace(string(out)))
	}

	logger.DebugKV(ctx, "Packages installed", "packages", packages)

	return nil
}
