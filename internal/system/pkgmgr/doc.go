// Package pkgmgr installs system prerequisites through the OS package
// manager. Apt is the production implementation.
package pkgmgr
