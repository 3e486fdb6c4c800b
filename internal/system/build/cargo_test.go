package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenpi/watering-deploy/internal/domain/deploy"
)

var errTestExit = errors.New("exit status 101")

// fakeRunner records the invocation and optionally creates the artifact,
// simulating a build tool writing its output as a side effect.
type fakeRunner struct {
	dir            string
	name           string
	args           []string
	err            error
	createArtifact string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.RunDir(ctx, "", name, args...)
}

func (f *fakeRunner) RunDir(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.dir = dir
	f.name = name
	f.args = args

	if f.createArtifact != "" {
		if err := os.MkdirAll(filepath.Dir(f.createArtifact), 0o755); err != nil {
			return nil, err
		}

		if err := os.WriteFile(f.createArtifact, []byte("binary"), 0o755); err != nil {
			return nil, err
		}
	}

	return []byte("   Compiling watering-server v1.0.0\n"), f.err
}

func testTarget(dir string) deploy.Target {
	return deploy.Target{
		ProjectDir:  dir,
		ServiceName: "watering-server",
		RuntimeUser: "pi",
		BinaryPath:  "target/release/watering-server",
	}
}

// TestCargo_BuildCommandLine verifies release mode and the feature flag join.
func TestCargo_BuildCommandLine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := testTarget(dir)
	runner := &fakeRunner{createArtifact: target.ArtifactPath()}

	c := NewCargo(runner, []string{"gpio", "metrics"})

	result, err := c.Build(context.Background(), target)

	require.NoError(t, err)
	require.True(t, result.Succeeded)
	require.Equal(t, dir, runner.dir)
	require.Equal(t, "cargo", runner.name)
	require.Equal(t, []string{"build", "--release", "--features", "gpio,metrics"}, runner.args)
}

// TestCargo_BuildSuccessIsArtifactExistence covers the dual check: a clean
// exit without an artifact is a failed build, and a dirty exit with an
// artifact still counts as success.
func TestCargo_BuildSuccessIsArtifactExistence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		exitErr        error
		writesArtifact bool
		wantSucceeded  bool
	}{
		{name: "exit zero with artifact", writesArtifact: true, wantSucceeded: true},
		{name: "exit zero without artifact", wantSucceeded: false},
		{name: "exit non-zero with artifact", exitErr: errTestExit, writesArtifact: true, wantSucceeded: true},
		{name: "exit non-zero without artifact", exitErr: errTestExit, wantSucceeded: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := testTarget(t.TempDir())
			runner := &fakeRunner{err: tt.exitErr}

			if tt.writesArtifact {
				runner.createArtifact = target.ArtifactPath()
			}

			result, err := NewCargo(runner, []string{"gpio"}).Build(context.Background(), target)

			require.NoError(t, err)
			require.Equal(t, tt.wantSucceeded, result.Succeeded)
			require.Equal(t, target.ArtifactPath(), result.ArtifactPath)
			require.Contains(t, result.Output, "Compiling")
		})
	}
}

// TestAsError classifies a failed result as a build error.
func TestAsError(t *testing.T) {
	t.Parallel()

	err := AsError(&deploy.BuildResult{ArtifactPath: "/opt/watering-server/target/release/watering-server"})

	require.ErrorIs(t, err, deploy.ErrBuild)
	require.Contains(t, err.Error(), "/opt/watering-server/target/release/watering-server")
}
