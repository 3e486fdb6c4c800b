// Package command wraps os/exec behind a small Runner interface so that
// packages shelling out to system tools (systemctl, apt-get, cargo, usermod)
// stay testable without touching the host.
package command
