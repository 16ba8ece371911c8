package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safetravel/groupwatch/pkg/models"
)

// MemberDirectory resolves a username to a backend member
type MemberDirectory interface {
	AddMember(ctx context.Context, username string) (*models.AddMemberResponse, error)
}

// GroupMembershipController keeps the member list and the position store in
// step: every member has exactly one position and no position exists without
// a member. The local user is member zero, seeded at the reference point.
//
// Like PositionStore it has a single owner. Session splits Invite into
// Member / directory call / Admit so the network call happens unlocked.
type GroupMembershipController struct {
	store     *PositionStore
	directory MemberDirectory
	members   []models.Member
	local     string
	reference models.Position
	offset    Drift
}

// NewGroupMembershipController seeds local at reference. Invited members start
// at reference shifted by offset.
func NewGroupMembershipController(store *PositionStore, directory MemberDirectory, local models.Member, reference models.Position, offset Drift) (*GroupMembershipController, error) {
	if local.Username == "" {
		return nil, fmt.Errorf("local user needs a username: %w", ErrValidation)
	}
	if local.Name == "" {
		local.Name = local.Username
	}

	c := &GroupMembershipController{
		store:     store,
		directory: directory,
		local:     local.Username,
		reference: reference,
		offset:    offset,
	}
	c.members = append(c.members, local)
	store.Set(local.Username, reference)
	return c, nil
}

// Invite resolves username with the directory and adds it to the group.
// A username already in the group is returned as is without a lookup.
func (c *GroupMembershipController) Invite(ctx context.Context, username string) (models.Member, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return models.Member{}, err
	}
	if m, ok := c.Member(username); ok {
		return m, nil
	}

	m, err := c.Resolve(ctx, username)
	if err != nil {
		return models.Member{}, err
	}

	m, err = c.Admit(m)
	if err != nil && !errors.Is(err, ErrAlreadyMember) {
		return models.Member{}, err
	}
	return m, nil
}

// Resolve asks the directory for username without touching local state
func (c *GroupMembershipController) Resolve(ctx context.Context, username string) (models.Member, error) {
	if c.directory == nil {
		return models.Member{}, fmt.Errorf("no member directory configured: %w", ErrNetwork)
	}

	resp, err := c.directory.AddMember(ctx, username)
	if err != nil {
		return models.Member{}, err
	}

	m := *resp.User
	if m.Username == "" {
		m.Username = username
	}
	return m, nil
}

// Admit inserts m and seeds its position. A member already present is
// returned together with ErrAlreadyMember and nothing changes.
func (c *GroupMembershipController) Admit(m models.Member) (models.Member, error) {
	if m.Username == "" {
		return models.Member{}, fmt.Errorf("member needs a username: %w", ErrValidation)
	}
	if existing, ok := c.Member(m.Username); ok {
		return existing, ErrAlreadyMember
	}

	c.members = append(c.members, m)
	c.store.Set(m.Username, c.SeedPosition())
	return m, nil
}

// SeedPosition is where invited members start
func (c *GroupMembershipController) SeedPosition() models.Position {
	return c.reference.Offset(c.offset.DLat, c.offset.DLng)
}

// Remove drops username and its position. The local user cannot leave.
func (c *GroupMembershipController) Remove(username string) error {
	if username == c.local {
		return fmt.Errorf("cannot remove the local user %s: %w", username, ErrValidation)
	}

	for i, m := range c.members {
		if m.Username == username {
			c.members = append(c.members[:i], c.members[i+1:]...)
			c.store.Remove(username)
			return nil
		}
	}
	return fmt.Errorf("member %s: %w", username, ErrNotFound)
}

// Rename changes the display name of username
func (c *GroupMembershipController) Rename(username, name string) error {
	for i := range c.members {
		if c.members[i].Username == username {
			c.members[i].Name = name
			return nil
		}
	}
	return fmt.Errorf("member %s: %w", username, ErrNotFound)
}

// Member looks up a member by username
func (c *GroupMembershipController) Member(username string) (models.Member, bool) {
	for _, m := range c.members {
		if m.Username == username {
			return m, true
		}
	}
	return models.Member{}, false
}

// Members returns the group, local user first
func (c *GroupMembershipController) Members() []models.Member {
	out := make([]models.Member, len(c.members))
	copy(out, c.members)
	return out
}

// Local returns the local user's username
func (c *GroupMembershipController) Local() string { return c.local }

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("username is required: %w", ErrValidation)
	}
	return username, nil
}
