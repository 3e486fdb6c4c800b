// Package usergroup answers group-membership questions against the host's
// user database and grants the runtime user access to the hardware group.
package usergroup
