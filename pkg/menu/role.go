package menu

import (
	"context"
	"errors"

	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/samber/mo"
)

// RoleChoice grants Roles to members reacting with Emoji
type RoleChoice struct {
	Emoji string
	Roles []string
}

// RoleOptions extends Options for role menus
type RoleOptions struct {
	Options
	// MaxUsersWithRole is checked against live role membership.
	MaxUsersWithRole mo.Option[int]
	// RemoveRoleOnReactionRemoval revokes the roles when the reaction goes.
	RemoveRoleOnReactionRemoval bool
}

// DefaultRoleOptions revokes roles on reaction removal
func DefaultRoleOptions() RoleOptions {
	return RoleOptions{Options: DefaultOptions(), RemoveRoleOnReactionRemoval: true}
}

// RoleMenu grants roles by reaction.
type RoleMenu struct {
	*Engine
	guildID string
}

// NewRoleMenu creates a role menu engine for guildID
func NewRoleMenu(engine *Engine, guildID string) *RoleMenu {
	return &RoleMenu{Engine: engine, guildID: guildID}
}

func (m *RoleMenu) roleIDs(refs []string) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, ok := resolveRole(m.resolver, ref)
		if !ok {
			m.log.Warn("unknown role %s in role menu", ref)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// AddRoles turns a message into a role menu. Unknown roles are skipped.
func (m *RoleMenu) AddRoles(ctx context.Context, channelID, messageID string, choices []RoleChoice, opts RoleOptions) error {
	roles := map[string][]string{}
	menuChoices := make([]Choice, 0, len(choices))
	for _, c := range choices {
		ids := m.roleIDs(c.Roles)
		roles[c.Emoji] = ids
		menuChoices = append(menuChoices, Choice{Emoji: c.Emoji, Action: m.grant(ids)})
	}

	en := &entry{
		options: opts.Options,
		check: func(ctx context.Context, r *Reaction) bool {
			return m.underLimit(r, roles[r.Emoji], opts)
		},
	}
	if opts.RemoveRoleOnReactionRemoval {
		en.onRemove = func(ctx context.Context, r *Reaction) {
			m.revoke(r, roles[r.Emoji])
		}
	}
	return m.add(channelID, messageID, menuChoices, en)
}

func (m *RoleMenu) grant(roleIDs []string) Action {
	return func(ctx context.Context, r *Reaction) error {
		var errs []error
		for _, id := range roleIDs {
			if err := m.session.GuildMemberRoleAdd(m.guildID, r.UserID, id); err != nil {
				errs = append(errs, types.FromDiscord(err, "grant role"))
			}
		}
		if len(errs) == 0 {
			m.log.Debug("granted %v to %s", roleIDs, r.UserID)
		}
		return errors.Join(errs...)
	}
}

func (m *RoleMenu) revoke(r *Reaction, roleIDs []string) {
	for _, id := range roleIDs {
		if err := m.session.GuildMemberRoleRemove(m.guildID, r.UserID, id); err != nil {
			m.log.Warn("removing role %s from %s: %v", id, r.UserID, err)
		}
	}
}

// underLimit counts live role members; a member already holding every role
// keeps the reaction even when the limit is reached.
func (m *RoleMenu) underLimit(r *Reaction, roleIDs []string, opts RoleOptions) bool {
	max, ok := opts.MaxUsersWithRole.Get()
	if !ok {
		return true
	}
	for _, id := range roleIDs {
		count, err := discord.CountMembersWithRole(m.session, m.guildID, id)
		if err != nil {
			m.log.Warn("counting members of %s: %v", id, err)
			return false
		}
		if count < max {
			continue
		}
		m.log.Debug("role %s already has %d members", id, count)
		if opts.UpdateReactions && !holdsAll(r, roleIDs) {
			m.reject(r)
		}
		return false
	}
	return true
}

func holdsAll(r *Reaction, roleIDs []string) bool {
	for _, id := range roleIDs {
		if !discord.HasRole(r.Member, id) {
			return false
		}
	}
	return true
}
