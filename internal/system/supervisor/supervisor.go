package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/greenpi/watering-deploy/internal/domain/deploy"
	"github.com/greenpi/watering-deploy/internal/system/command"
)

// Supervisor is the service-manager control surface consumed by the
// installer and the updater.
type Supervisor interface {
	// Stop stops the service.
	Stop(ctx context.Context, service string) error
	// Start starts the service.
	Start(ctx context.Context, service string) error
	// Enable marks the service to start at boot.
	Enable(ctx context.Context, service string) error
	// Status reports whether the service is running plus the supervisor's
	// human-readable status block.
	Status(ctx context.Context, service string) (*deploy.StatusReport, error)
	// RecentLogs returns the last count log lines of the service, oldest first.
	RecentLogs(ctx context.Context, service string, count int) ([]string, error)
	// RegisterUnit writes the unit definition for the service.
	// Re-registering the same definition is safe.
	RegisterUnit(ctx context.Context, service string, spec deploy.UnitSpec) error
	// ReloadUnits makes the supervisor pick up changed unit definitions.
	ReloadUnits(ctx context.Context) error
}

// DefaultUnitDir is where systemd looks for administrator-provided units.
const DefaultUnitDir = "/etc/systemd/system"

// unitFilePermissions is the mode of the written unit file.
// Units are world-readable like the distribution-provided ones.
const unitFilePermissions os.FileMode = 0o644

// Systemd drives the host's systemd via systemctl and journalctl.
type Systemd struct {
	// UnitDir is where unit files are written. Overridable for tests.
	UnitDir string

	runner command.Runner
}

// NewSystemd returns a Systemd supervisor using the provided runner.
func NewSystemd(runner command.Runner) *Systemd {
	return &Systemd{
		UnitDir: DefaultUnitDir,
		runner:  runner,
	}
}

// Stop stops the service via systemctl.
func (s *Systemd) Stop(ctx context.Context, service string) error {
	if out, err := s.runner.Run(ctx, "systemctl", "stop", service); err != nil {
		return fmt.Errorf("systemctl stop %s: %w: %s", service, err, strings.TrimSpace(string(out)))
	}

	return nil
}

// Start starts the service via systemctl.
func (s *Systemd) Start(ctx context.Context, service string) error {
	if out, err := s.runner.Run(ctx, "systemctl", "start", service); err != nil {
		return fmt.Errorf("systemctl start %s: %w: %s", service, err, strings.TrimSpace(string(out)))
	}

	return nil
}

// Enable marks the service to start at boot via systemctl.
func (s *Systemd) Enable(ctx context.Context, service string) error {
	if out, err := s.runner.Run(ctx, "systemctl", "enable", service); err != nil {
		return fmt.Errorf("systemctl enable %s: %w: %s", service, err, strings.TrimSpace(string(out)))
	}

	return nil
}

// Status queries `systemctl is-active` for the running flag and
// `systemctl status` for the human-readable block.
//
// systemctl exits non-zero for inactive units, so the exit status alone does
// not distinguish "not running" from "could not ask": as long as is-active
// printed a state word, the query itself succeeded.
func (s *Systemd) Status(ctx context.Context, service string) (*deploy.StatusReport, error) {
	out, err := s.runner.Run(ctx, "systemctl", "is-active", service)

	state := strings.TrimSpace(string(out))
	if state == "" && err != nil {
		return nil, fmt.Errorf("systemctl is-active %s: %w", service, err)
	}

	report := &deploy.StatusReport{
		Running: state == "active",
	}

	// The status block is decoration on top of the running flag; systemctl
	// status exits 3 for stopped units, which is not a query failure.
	if text, textErr := s.runner.Run(ctx, "systemctl", "status", service, "--no-pager"); len(text) > 0 || textErr == nil {
		report.StatusText = strings.TrimRight(string(text), "\n")
	}

	return report, nil
}

// RecentLogs fetches the last count journal lines for the service.
func (s *Systemd) RecentLogs(ctx context.Context, service string, count int) ([]string, error) {
	out, err := s.runner.Run(ctx, "journalctl", "-u", service, "-n", strconv.Itoa(count), "--no-pager")
	if err != nil {
		return nil, fmt.Errorf("journalctl -u %s: %w", service, err)
	}

	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}

	return strings.Split(trimmed, "\n"), nil
}

// RegisterUnit renders the unit definition and writes it to the unit
// directory. Overwriting an existing definition is expected on re-install.
func (s *Systemd) RegisterUnit(_ context.Context, service string, spec deploy.UnitSpec) error {
	content, err := RenderUnit(spec)
	if err != nil {
		return fmt.Errorf("render unit %s: %w", service, err)
	}

	path := s.UnitPath(service)
	if err := os.WriteFile(path, []byte(content), unitFilePermissions); err != nil {
		return fmt.Errorf("write unit %s: %w", path, err)
	}

	return nil
}

// ReloadUnits asks systemd to re-read unit definitions.
func (s *Systemd) ReloadUnits(ctx context.Context) error {
	if out, err := s.runner.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return nil
}

// UnitPath returns where the unit file for the service is written.
func (s *Systemd) UnitPath(service string) string {
	return filepath.Join(s.UnitDir, service+".service")
}
