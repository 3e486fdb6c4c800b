package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/domain/deploy"
)

// errExitStatus stands in for a non-zero systemctl exit.
var errExitStatus = errors.New("exit status 3")

// hostRunner simulates the host tools the orchestrator shells out to:
// systemctl tracks a started/stopped service, cargo optionally writes the
// artifact, journalctl replays canned lines.
type hostRunner struct {
	mu    sync.Mutex
	calls [][]string

	// buildOK controls whether cargo produces the artifact.
	buildOK bool
	// artifact is the absolute path cargo writes on success.
	artifact string
	// started mirrors the simulated service state.
	started bool
}

func (r *hostRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.RunDir(ctx, "", name, args...)
}

func (r *hostRunner) RunDir(_ context.Context, _, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, append([]string{name}, args...))

	switch name {
	case "cargo":
		if r.buildOK {
			if err := os.MkdirAll(filepath.Dir(r.artifact), 0o755); err != nil {
				return nil, err
			}

			if err := os.WriteFile(r.artifact, []byte("binary"), 0o755); err != nil {
				return nil, err
			}
		}

		return []byte("   Compiling watering-server v1.0.0\n"), nil
	case "systemctl":
		return r.systemctl(args)
	case "journalctl":
		return []byte("pump controller starting\nlistening on :8080\n"), nil
	case "apt-get":
		return nil, nil
	}

	return nil, fmt.Errorf("unexpected command: %s", name)
}

func (r *hostRunner) systemctl(args []string) ([]byte, error) {
	switch args[0] {
	case "stop":
		r.started = false
		return nil, nil
	case "start":
		r.started = true
		return nil, nil
	case "enable", "daemon-reload":
		return nil, nil
	case "is-active":
		if r.started {
			return []byte("active\n"), nil
		}

		return []byte("inactive\n"), errExitStatus
	case "status":
		if r.started {
			return []byte("   Active: active (running)\n"), nil
		}

		return []byte("   Active: inactive (dead)\n"), errExitStatus
	}

	return nil, fmt.Errorf("unexpected systemctl verb: %s", args[0])
}

// commandNames returns the distinct first words of all recorded calls.
func (r *hostRunner) commandNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	for _, call := range r.calls {
		names = append(names, call[0])
	}

	return names
}

// fakeUsers keeps the installer off the real user database.
type fakeUsers struct {
	member bool
	added  int
}

func (f *fakeUsers) GroupExists(string) (bool, error) { return true, nil }

func (f *fakeUsers) IsMember(string, string) (bool, error) { return f.member, nil }

func (f *fakeUsers) AddToGroup(context.Context, string, string) error {
	f.added++
	f.member = true

	return nil
}

// newProject lays out a project directory with a build manifest and writes a
// config file pointing at it with a near-zero settle delay.
func newProject(t *testing.T) (cfg *config.Config, runner *hostRunner) {
	t.Helper()

	dir := t.TempDir()
	manifest := filepath.Join(dir, deploy.BuildManifestFilename)
	require.NoError(t, os.WriteFile(manifest, []byte("[package]\nname = \"watering-server\"\n"), 0o600))

	configPath := filepath.Join(dir, config.DefaultConfigFilename)
	contents := fmt.Sprintf("project_dir: %s\nsettle_delay: 1ms\n", dir)
	require.NoError(t, os.WriteFile(configPath, []byte(contents), 0o600))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	return cfg, &hostRunner{artifact: cfg.Target().ArtifactPath()}
}
