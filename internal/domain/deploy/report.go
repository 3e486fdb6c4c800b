package deploy

import (
	"fmt"
	"time"
)

// BuildResult is the outcome of one build invocation. Artifact existence is
// the success signal; the build tool's exit status is advisory only.
type BuildResult struct {
	// Succeeded reports whether the artifact exists after the build.
	Succeeded bool
	// ArtifactPath is where the binary was expected to appear.
	ArtifactPath string
	// Output is the combined build tool output, kept for diagnostics.
	Output string
}

// RestartPolicy describes how the supervisor restarts the service.
type RestartPolicy struct {
	// Mode is the supervisor restart mode, e.g. "always".
	Mode string
	// Delay is the backoff between automatic restarts.
	Delay time.Duration
}

// UnitSpec is the generated supervisor unit definition. It is handed off to
// the supervisor, which owns the service's runtime lifecycle thereafter.
type UnitSpec struct {
	// Description is the human-readable unit description.
	Description string
	// After is the ordering dependency, e.g. "network.target".
	After string
	// User is the account the service runs as.
	User string
	// WorkingDir is the service working directory.
	WorkingDir string
	// ExecStart is the absolute path of the binary to run.
	ExecStart string
	// Restart is the automatic restart policy.
	Restart RestartPolicy
	// WantedBy enables the unit at boot, e.g. "multi-user.target".
	WantedBy string
}

// NewUnitSpec derives the unit definition for a target.
func NewUnitSpec(t Target, restartDelay time.Duration) UnitSpec {
	return UnitSpec{
		Description: fmt.Sprintf("Watering control service (%s)", t.ServiceName),
		After:       "network.target",
		User:        t.RuntimeUser,
		WorkingDir:  t.ProjectDir,
		ExecStart:   t.ArtifactPath(),
		Restart: RestartPolicy{
			Mode:  "always",
			Delay: restartDelay,
		},
		WantedBy: "multi-user.target",
	}
}

// StatusReport is a read-only snapshot of the service state fetched from the
// supervisor after a state-changing step, for operator visibility.
type StatusReport struct {
	// Running reports whether the supervisor considers the unit active.
	Running bool
	// StatusText is the supervisor's human-readable status block.
	StatusText string
	// RecentLogs are the last journal lines, oldest first.
	RecentLogs []string
}
