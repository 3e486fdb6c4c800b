package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BuildManifestFilename is the file that must exist in the project directory
// before any deployment operation proceeds.
const BuildManifestFilename = "Cargo.toml"

var (
	// errServiceNameRequired is returned when a target has no service name.
	errServiceNameRequired = errors.New("target service name must be provided")
	// errRuntimeUserRequired is returned when a target has no runtime user.
	errRuntimeUserRequired = errors.New("target runtime user must be provided")
	// errProjectDirRequired is returned when a target has no project directory.
	errProjectDirRequired = errors.New("target project directory must be provided")
	// errBinaryPathRequired is returned when a target has no binary path.
	errBinaryPathRequired = errors.New("target binary path must be provided")
)

// Target identifies the one service a run operates on.
// It is immutable for the duration of a run.
type Target struct {
	// ProjectDir is the absolute path of the service source tree.
	ProjectDir string
	// ServiceName is the supervisor unit name.
	ServiceName string
	// RuntimeUser is the OS account the service runs as.
	RuntimeUser string
	// BinaryPath is the built artifact location relative to ProjectDir.
	BinaryPath string
}

// ArtifactPath returns the absolute path of the built binary.
func (t Target) ArtifactPath() string {
	return filepath.Join(t.ProjectDir, t.BinaryPath)
}

// ManifestPath returns the absolute path of the build manifest.
func (t Target) ManifestPath() string {
	return filepath.Join(t.ProjectDir, BuildManifestFilename)
}

// Validate checks the target for required fields.
func (t Target) Validate() error {
	if t.ProjectDir == "" {
		return errProjectDirRequired
	}

	if t.ServiceName == "" {
		return errServiceNameRequired
	}

	if t.RuntimeUser == "" {
		return errRuntimeUserRequired
	}

	if t.BinaryPath == "" {
		return errBinaryPathRequired
	}

	return nil
}

// CheckManifest verifies the build manifest exists before any mutating step.
// A missing manifest is a configuration error with zero side effects so far.
func CheckManifest(t Target) error {
	if _, err := os.Stat(t.ManifestPath()); err != nil {
		return fmt.Errorf("%w: build manifest %s not found", ErrConfiguration, t.ManifestPath())
	}

	return nil
}
