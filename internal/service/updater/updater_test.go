package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/domain/deploy"
)

var (
	errTestStop   = errors.New("test stop error")
	errTestStart  = errors.New("test start error")
	errTestStatus = errors.New("test status error")
	errTestList   = errors.New("test process list error")
)

// fakeSupervisor tracks the running/stopped state across stop and start
// calls and records which control operations ran, in order.
type fakeSupervisor struct {
	calls     []string
	running   bool
	stopErr   error
	startErr  error
	statusErr error
}

func (f *fakeSupervisor) Stop(_ context.Context, _ string) error {
	f.calls = append(f.calls, "stop")

	if f.stopErr != nil {
		return f.stopErr
	}

	f.running = false

	return nil
}

func (f *fakeSupervisor) Start(_ context.Context, _ string) error {
	f.calls = append(f.calls, "start")

	if f.startErr != nil {
		return f.startErr
	}

	f.running = true

	return nil
}

func (f *fakeSupervisor) Enable(_ context.Context, _ string) error {
	f.calls = append(f.calls, "enable")
	return nil
}

func (f *fakeSupervisor) Status(_ context.Context, _ string) (*deploy.StatusReport, error) {
	f.calls = append(f.calls, "status")

	if f.statusErr != nil {
		return nil, f.statusErr
	}

	return &deploy.StatusReport{Running: f.running}, nil
}

func (f *fakeSupervisor) RecentLogs(_ context.Context, _ string, _ int) ([]string, error) {
	f.calls = append(f.calls, "logs")
	return []string{"pump controller ready"}, nil
}

func (f *fakeSupervisor) RegisterUnit(_ context.Context, _ string, _ deploy.UnitSpec) error {
	f.calls = append(f.calls, "register")
	return nil
}

func (f *fakeSupervisor) ReloadUnits(_ context.Context) error {
	f.calls = append(f.calls, "reload")
	return nil
}

// fakeBuilder replays a canned build result.
type fakeBuilder struct {
	succeeded bool
	builds    int
}

func (f *fakeBuilder) Build(_ context.Context, target deploy.Target) (*deploy.BuildResult, error) {
	f.builds++

	return &deploy.BuildResult{
		Succeeded:    f.succeeded,
		ArtifactPath: target.ArtifactPath(),
	}, nil
}

// fakeProcess satisfies ps.Process for sweep tests.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

func newTestConfig(t *testing.T, withManifest bool) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.ProjectDir = t.TempDir()

	if withManifest {
		manifest := filepath.Join(cfg.ProjectDir, deploy.BuildManifestFilename)
		require.NoError(t, os.WriteFile(manifest, []byte("[package]\n"), 0o600))
	}

	return cfg
}

func newTestUpdater(cfg *config.Config, sup *fakeSupervisor, builder *fakeBuilder) *Updater {
	up := New(cfg, sup, builder, nil)
	up.sleep = func(time.Duration) {}
	up.listProcesses = func() ([]ps.Process, error) { return nil, nil }

	return up
}

// TestUpdater_SuccessPath stops, builds, restarts and reports; the restart
// is never skipped on a successful build.
func TestUpdater_SuccessPath(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, true)
	sup := &fakeSupervisor{running: true}
	builder := &fakeBuilder{succeeded: true}

	err := newTestUpdater(cfg, sup, builder).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, builder.builds)
	require.Equal(t, []string{"stop", "start", "status", "logs"}, sup.calls)
	require.True(t, sup.running, "service must end the run running")
}

// TestUpdater_RollbackOnBuildFailure restarts the previous binary and still
// reports the build failure as the run's outcome.
func TestUpdater_RollbackOnBuildFailure(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, true)
	sup := &fakeSupervisor{running: true}
	builder := &fakeBuilder{succeeded: false}

	err := newTestUpdater(cfg, sup, builder).Run(context.Background())

	require.ErrorIs(t, err, deploy.ErrBuild)
	require.Equal(t, []string{"stop", "start", "status", "logs"}, sup.calls)
	require.True(t, sup.running, "rollback invariant: service running after a failed build")
}

// TestUpdater_CompoundFailure escalates distinctly when the rollback restart
// also fails: the service is down with no known-good binary.
func TestUpdater_CompoundFailure(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, true)
	sup := &fakeSupervisor{running: true, startErr: errTestStart}

	err := newTestUpdater(cfg, sup, &fakeBuilder{succeeded: false}).Run(context.Background())

	require.ErrorIs(t, err, deploy.ErrRollbackFailed)
	require.NotErrorIs(t, err, deploy.ErrBuild)
}

// TestUpdater_StopFailureContinues still builds when the stop fails: the
// build does not depend on the service state.
func TestUpdater_StopFailureContinues(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, true)
	sup := &fakeSupervisor{running: true, stopErr: errTestStop}
	builder := &fakeBuilder{succeeded: true}

	err := newTestUpdater(cfg, sup, builder).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, builder.builds)
}

// TestUpdater_StartFailureAfterGoodBuild is a plain supervisor error, not a
// rollback condition.
func TestUpdater_StartFailureAfterGoodBuild(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, true)
	sup := &fakeSupervisor{running: true, startErr: errTestStart}

	err := newTestUpdater(cfg, sup, &fakeBuilder{succeeded: true}).Run(context.Background())

	require.ErrorIs(t, err, deploy.ErrSupervisor)
}

// TestUpdater_MissingManifest aborts before stopping the service.
func TestUpdater_MissingManifest(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, false)
	sup := &fakeSupervisor{running: true}
	builder := &fakeBuilder{succeeded: true}

	err := newTestUpdater(cfg, sup, builder).Run(context.Background())

	require.ErrorIs(t, err, deploy.ErrConfiguration)
	require.Empty(t, sup.calls)
	require.Zero(t, builder.builds)
}

// TestUpdater_AdvisoryStatusFailure keeps the successful outcome when the
// final status query fails.
func TestUpdater_AdvisoryStatusFailure(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, true)
	sup := &fakeSupervisor{running: true, statusErr: errTestStatus}

	err := newTestUpdater(cfg, sup, &fakeBuilder{succeeded: true}).Run(context.Background())

	require.NoError(t, err)
}

// TestUpdater_SweepKillsLeftovers only targets processes matching the
// service binary name, never this process or unrelated ones.
func TestUpdater_SweepKillsLeftovers(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, true)
	up := newTestUpdater(cfg, &fakeSupervisor{}, &fakeBuilder{succeeded: true})

	// Unrelated processes and this process itself: nothing to kill, and the
	// sweep must not error out.
	up.listProcesses = func() ([]ps.Process, error) {
		return []ps.Process{
			fakeProcess{pid: os.Getpid(), executable: "watering-server"},
			fakeProcess{pid: 1, executable: "systemd"},
		}, nil
	}

	up.sweepProcesses(context.Background())
}

// TestUpdater_SweepListFailureIsAdvisory continues the run when listing fails.
func TestUpdater_SweepListFailureIsAdvisory(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, true)
	sup := &fakeSupervisor{running: true}
	up := newTestUpdater(cfg, sup, &fakeBuilder{succeeded: true})
	up.listProcesses = func() ([]ps.Process, error) { return nil, errTestList }

	require.NoError(t, up.Run(context.Background()))
}
