// Package installer provisions a fresh host: system prerequisites, the
// hardware-access grant, the release build, the supervisor unit and the
// first start of the service.
package installer
