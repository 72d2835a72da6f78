package listener

import (
	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"
)

// Message is a created message together with its author's guild member
type Message struct {
	*discordgo.Message
	Member *discordgo.Member
}

// Resolver turns channel and role references into platform ids
type Resolver interface {
	ChannelID(ref string) (string, bool)
	RoleID(ref string) (string, bool)
}

// MemberLookup fetches a guild member for events that do not carry one
type MemberLookup func(guildID, userID string) (*discordgo.Member, error)

// FilterConfig restricts where and from whom a listener accepts events.
// An absent list places no restriction; a present empty list allows nothing.
// Forbidden lists are checked before allowed ones.
type FilterConfig struct {
	AllowedChannels   mo.Option[[]string]
	ForbiddenChannels mo.Option[[]string]
	AllowedRoles      mo.Option[[]string]
	ForbiddenRoles    mo.Option[[]string]
}

// Filter applies a FilterConfig
type Filter struct {
	config   FilterConfig
	resolver Resolver
	members  MemberLookup
}

// WithFilter gates the listener with cfg, resolving references through resolver
func WithFilter(cfg FilterConfig, resolver Resolver) Option {
	return func(l *Listener) {
		l.filter = &Filter{config: cfg, resolver: resolver}
	}
}

// WithMemberLookup lets the filter fetch members missing from an event.
// It may be passed before or after WithFilter.
func WithMemberLookup(lookup MemberLookup) Option {
	return func(l *Listener) { l.members = lookup }
}

func (f *Filter) matchesChannel(refs []string, channelID string) bool {
	for _, ref := range refs {
		if id, ok := f.resolver.ChannelID(ref); ok && id == channelID {
			return true
		}
	}
	return false
}

func (f *Filter) matchesRole(refs []string, member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	for _, ref := range refs {
		id, ok := f.resolver.RoleID(ref)
		if !ok {
			continue
		}
		for _, r := range member.Roles {
			if r == id {
				return true
			}
		}
	}
	return false
}

// CheckChannel reports whether channelID passes the channel lists
func (f *Filter) CheckChannel(channelID string) bool {
	if forbidden, ok := f.config.ForbiddenChannels.Get(); ok && f.matchesChannel(forbidden, channelID) {
		return false
	}
	allowed, ok := f.config.AllowedChannels.Get()
	if !ok {
		return true
	}
	return f.matchesChannel(allowed, channelID)
}

// CheckMember reports whether member passes the role lists. A nil member
// holds no role.
func (f *Filter) CheckMember(member *discordgo.Member) bool {
	if forbidden, ok := f.config.ForbiddenRoles.Get(); ok && f.matchesRole(forbidden, member) {
		return false
	}
	allowed, ok := f.config.AllowedRoles.Get()
	if !ok {
		return true
	}
	return f.matchesRole(allowed, member)
}

// AllowedChannelIDs resolves the allowed channel list. It is empty when no
// allowed list is configured.
func (f *Filter) AllowedChannelIDs() []string {
	allowed, ok := f.config.AllowedChannels.Get()
	if !ok {
		return nil
	}
	var ids []string
	for _, ref := range allowed {
		if id, ok := f.resolver.ChannelID(ref); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// HasFilter reports whether the listener is gated by a filter
func (l *Listener) HasFilter() bool {
	return l.filter != nil
}

// CheckChannel reports whether channelID passes the listener's filter
func (l *Listener) CheckChannel(channelID string) bool {
	return l.filter == nil || l.filter.CheckChannel(channelID)
}

// CheckMember reports whether member passes the listener's role filter
func (l *Listener) CheckMember(member *discordgo.Member) bool {
	return l.filter == nil || l.filter.CheckMember(member)
}

// FilterMessage returns msg if it passes both the channel and role checks, else nil
func (l *Listener) FilterMessage(msg *Message) *Message {
	if msg == nil {
		return nil
	}
	if !l.CheckChannel(msg.ChannelID) || !l.CheckMember(msg.Member) {
		return nil
	}
	return msg
}

// Passes reports whether an edit or reaction event passes the filter.
// Handlers of those events consult it themselves.
func (l *Listener) Passes(ev *Event) bool {
	if l.filter == nil {
		return true
	}
	if !l.filter.CheckChannel(ev.ChannelID()) {
		return false
	}
	member := ev.Member()
	if member == nil && l.filter.members != nil {
		if r := ev.Reaction(); r != nil {
			if m, err := l.filter.members(r.GuildID, r.UserID); err == nil {
				member = m
			}
		}
	}
	return l.filter.CheckMember(member)
}

// AllowedChannelIDs lists the channels the listener is restricted to
func (l *Listener) AllowedChannelIDs() []string {
	if l.filter == nil {
		return nil
	}
	return l.filter.AllowedChannelIDs()
}
