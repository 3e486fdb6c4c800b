package version

import "fmt"

// Build metadata, overridden via -ldflags at release time.
// The defaults mark a build made without the release wrapper.
var (
	Version   = "1.0.0"
	Commit    = "none"
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version together with the commit and build timestamp,
// formatted for log lines and the `version` subcommand.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
