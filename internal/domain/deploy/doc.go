// Package deploy holds the domain model of a deployment run: the target
// service identity, build outcomes, the generated supervisor unit definition,
// status snapshots and the error taxonomy shared by the installer and the
// updater.
package deploy
