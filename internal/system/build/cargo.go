package build

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/greenpi/watering-deploy/internal/domain/deploy"
	"github.com/greenpi/watering-deploy/internal/logger"
	"github.com/greenpi/watering-deploy/internal/system/command"
)

// Builder produces the service binary from the project source tree.
type Builder interface {
	// Build runs the toolchain and reports whether the artifact exists.
	Build(ctx context.Context, target deploy.Target) (*deploy.BuildResult, error)
}

// Cargo builds the service with the Rust toolchain in release mode.
type Cargo struct {
	runner command.Runner
	// features are the cargo features enabled for the build. The hardware
	// feature must be among them or the binary is a non-functional stub.
	features []string
}

// NewCargo returns a release-mode cargo builder with the given features.
func NewCargo(runner command.Runner, features []string) *Cargo {
	return &Cargo{
		runner:   runner,
		features: features,
	}
}

// Build runs `cargo build --release` in the project directory.
//
// Success is decided by the artifact existing at the expected path after the
// command returns, not by cargo's exit status: a partial or interrupted build
// can exit cleanly without leaving a usable binary, and the other way round.
func (c *Cargo) Build(ctx context.Context, target deploy.Target) (*deploy.BuildResult, error) {
	args := []string{"build", "--release"}
	if len(c.features) > 0 {
		args = append(args, "--features", strings.Join(c.features, ","))
	}

	logger.InfoKV(ctx, "Running cargo build", "dir", target.ProjectDir, "args", args)

	out, err := c.runner.RunDir(ctx, target.ProjectDir, "cargo", args...)
	if err != nil {
		// Advisory only; the artifact check below is the success signal.
		logger.WarnKV(ctx, "cargo exited with an error", "error", err)
	}

	result := &deploy.BuildResult{
		ArtifactPath: target.ArtifactPath(),
		Output:       string(out),
	}

	if _, statErr := os.Stat(result.ArtifactPath); statErr == nil {
		result.Succeeded = true
	}

	return result, nil
}

// AsError converts a failed result into the build error of the run.
// Calling it on a successful result is a programming mistake.
func AsError(result *deploy.BuildResult) error {
	return fmt.Errorf("%w: expected artifact at %s", deploy.ErrBuild, result.ArtifactPath)
}
