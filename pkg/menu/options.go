// Package menu implements reaction menus: messages whose reactions are
// mapped to actions, with role gates and participation limits.
package menu

import (
	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/samber/mo"
)

// RoleResolver resolves role references (catalog keys or raw ids)
type RoleResolver interface {
	RoleID(ref string) (string, bool)
}

// Options is the policy of one menu
type Options struct {
	// RequiredRoles restricts the menu to members holding one of them.
	RequiredRoles []string
	// IgnoredRoles silently ignores members holding one of them.
	IgnoredRoles []string

	MaxUsersPerReaction mo.Option[int]
	MaxReactionsPerUser mo.Option[int]

	// AllowOptionChange lets a member pick another option after a first choice.
	AllowOptionChange bool
	// UpdateReactions removes rejected reactions so the visible state stays true.
	UpdateReactions bool
	// RemoveReactionAfterAction removes the member's reaction once handled.
	RemoveReactionAfterAction bool
}

// DefaultOptions allows option changes and removes rejected reactions
func DefaultOptions() Options {
	return Options{AllowOptionChange: true, UpdateReactions: true}
}

type gateResult int

const (
	gatePass gateResult = iota
	gateMissingRole
	gateIgnored
)

// roleGate checks required roles first, then ignored roles.
func roleGate(resolver RoleResolver, member *discordgo.Member, required, ignored []string) gateResult {
	if len(required) > 0 {
		if holdsAny(resolver, member, required) {
			return gatePass
		}
		return gateMissingRole
	}
	if len(ignored) > 0 && holdsAny(resolver, member, ignored) {
		return gateIgnored
	}
	return gatePass
}

func holdsAny(resolver RoleResolver, member *discordgo.Member, refs []string) bool {
	for _, ref := range refs {
		if id, ok := resolveRole(resolver, ref); ok && discord.HasRole(member, id) {
			return true
		}
	}
	return false
}

func resolveRole(resolver RoleResolver, ref string) (string, bool) {
	if resolver == nil {
		return ref, ref != ""
	}
	return resolver.RoleID(ref)
}
