// Package supervisor wraps the OS service manager. The Supervisor interface
// is the control surface the installer and updater consume; Systemd is the
// production implementation driving systemctl and journalctl.
package supervisor
