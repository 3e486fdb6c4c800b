// Package updater performs the repeatable maintenance cycle: stop the
// service, rebuild the binary, verify the artifact, restart the service or
// roll back to the previous binary when the build fails.
package updater
