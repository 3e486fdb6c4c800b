package deploy

import "errors"

// Error taxonomy of a deployment run. Each step either completes or wraps
// exactly one of these; callers classify with errors.Is.
var (
	// ErrConfiguration means the required project structure is absent.
	// Always detected before any mutating action.
	ErrConfiguration = errors.New("project configuration error")

	// ErrPermissionSetup means the hardware-access group grant cannot complete.
	ErrPermissionSetup = errors.New("hardware permission setup failed")

	// ErrBuild means the build did not produce the expected artifact.
	ErrBuild = errors.New("build did not produce a usable artifact")

	// ErrSupervisor means a stop/start/enable/register call failed.
	ErrSupervisor = errors.New("supervisor operation failed")

	// ErrRollbackFailed is the compound condition: the build failed and the
	// rollback restart also failed, leaving the service down with no
	// known-good binary running.
	ErrRollbackFailed = errors.New("service down: build failed and rollback restart failed")
)
