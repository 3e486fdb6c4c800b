// Package common holds helpers shared by the installer and the updater: the
// per-project run lock, the post-start settle step and the advisory status
// report.
package common
