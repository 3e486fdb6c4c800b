package usergroup

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"strings"

	"github.com/greenpi/watering-deploy/internal/system/command"
)

// Directory answers group-membership questions and performs the one mutation
// the installer needs: adding the runtime user to the hardware-access group.
type Directory interface {
	// GroupExists reports whether the named group is present on the host.
	GroupExists(group string) (bool, error)
	// IsMember reports whether the user already belongs to the group.
	IsMember(username, group string) (bool, error)
	// AddToGroup appends the user to the group's member list.
	AddToGroup(ctx context.Context, username, group string) error
}

// OSDirectory reads the host user database via os/user and mutates it via
// usermod.
type OSDirectory struct {
	runner command.Runner
}

// NewOSDirectory returns a Directory backed by the host's user database.
func NewOSDirectory(runner command.Runner) *OSDirectory {
	return &OSDirectory{runner: runner}
}

// GroupExists reports whether the named group exists.
func (d *OSDirectory) GroupExists(group string) (bool, error) {
	if _, err := user.LookupGroup(group); err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return false, nil
		}

		return false, fmt.Errorf("lookup group %s: %w", group, err)
	}

	return true, nil
}

// IsMember reports whether the user already belongs to the group, checking
// both supplementary groups and the primary one.
func (d *OSDirectory) IsMember(username, group string) (bool, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return false, fmt.Errorf("lookup user %s: %w", username, err)
	}

	ids, err := u.GroupIds()
	if err != nil {
		return false, fmt.Errorf("group ids of %s: %w", username, err)
	}

	for _, id := range ids {
		g, err := user.LookupGroupId(id)
		if err != nil {
			continue
		}

		if g.Name == group {
			return true, nil
		}
	}

	return false, nil
}

// AddToGroup appends the user to the group via usermod.
// The grant only takes effect in sessions started after it.
func (d *OSDirectory) AddToGroup(ctx context.Context, username, group string) error {
	out, err := d.runner.Run(ctx, "usermod", "-aG", group, username)
	if err != nil {
		return fmt.Errorf("usermod -aG %s %s: %w: %s", group, username, err, strings.TrimSpace(string(out)))
	}

	return nil
}
