package command

import (
	"context"
	"os/exec"
)

// Runner executes external commands and returns their combined output.
// All system collaborators take a Runner so tests can record the exact
// command lines instead of mutating the host.
type Runner interface {
	// Run executes name with args in the current working directory.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// RunDir executes name with args in the provided directory.
	RunDir(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host via os/exec.
type ExecRunner struct{}

// Run executes the command in the current working directory.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.RunDir(ctx, "", name, args...)
}

// RunDir executes the command in the provided directory.
// The returned output interleaves stdout and stderr, matching what an
// operator would see running the command by hand.
func (ExecRunner) RunDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	return cmd.CombinedOutput()
}
