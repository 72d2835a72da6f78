package manager

import (
	"context"
	"math/rand"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
)

// Invite limits of the control panel invite command
const (
	InviteMaxUses = 30
	InviteMaxAge  = 3 * 60 * 60
)

type command func(ctx context.Context, r *discordgo.MessageReaction, member *discordgo.Member) error

func (m *Manager) controlPanelCommands() map[string]command {
	return map[string]command{
		ControlHelp:        m.cmdHelp,
		ControlAdminTool:   m.cmdAdminTool,
		ControlUpdate:      m.cmdUpdate(false),
		ControlForceUpdate: m.cmdUpdate(true),
		ControlCheck:       m.cmdCheck,
		ControlBoard:       m.cmdBoard,
		ControlClean:       m.cmdClean,
		ControlInvite:      m.cmdInvite,
		ControlVersion:     m.cmdVersion,
		ControlInfinity:    m.cmdInfinity,
		ControlLeave:       m.cmdLeave,
	}
}

func (m *Manager) controlPanelRemoveCommands() map[string]command {
	return map[string]command{
		ControlInvite: m.cmdInviteRemoved,
	}
}

func (m *Manager) runCommand(ctx context.Context, table map[string]command, r *discordgo.MessageReaction, member *discordgo.Member, emoji string) error {
	cmd, ok := table[emoji]
	if !ok {
		return nil
	}
	m.log.Debug("control panel command %s by %s", emoji, r.UserID)
	return cmd(ctx, r, member)
}

// dangerPressed reports whether the user armed the danger emoji on the panel
// and consumes it.
func (m *Manager) dangerPressed(r *discordgo.MessageReaction) bool {
	users, err := m.session.MessageReactions(r.ChannelID, r.MessageID, ControlDanger, 100)
	if err != nil {
		m.log.Debug("reading danger reactions: %v", err)
		return false
	}
	for _, u := range users {
		if u != nil && u.ID == r.UserID {
			discord.SafeReactionRemove(m.session, m.log, r.ChannelID, r.MessageID, ControlDanger, r.UserID)
			return true
		}
	}
	return false
}

// grantAdminIfUnset gives the administrator role to userID when no member
// holds it yet.
func (m *Manager) grantAdminIfUnset(userID, channelID string) bool {
	roleID, ok := m.cfg.Directory.RoleID(m.cfg.AdminRoleKey)
	if !ok {
		return false
	}
	count, err := discord.CountMembersWithRole(m.session, m.guildID, roleID)
	if err != nil {
		m.log.Warn("counting %s members: %v", m.cfg.AdminRoleKey, err)
		return false
	}
	if count > 0 {
		return false
	}
	if err := m.session.GuildMemberRoleAdd(m.guildID, userID, roleID); err != nil {
		m.log.Warn("granting %s to %s: %v", m.cfg.AdminRoleKey, userID, err)
		return false
	}
	m.log.Info("granted %s to %s", m.cfg.AdminRoleKey, userID)
	if channelID != "" {
		m.say(channelID, "ADMIN_GRANTED")
	}
	return true
}

func (m *Manager) isAdmin(userID string, member *discordgo.Member) bool {
	roleID, ok := m.cfg.Directory.RoleID(m.cfg.AdminRoleKey)
	if !ok {
		return false
	}
	if member == nil {
		fetched, err := m.session.GuildMember(m.guildID, userID)
		if err != nil {
			m.log.Debug("fetching member %s: %v", userID, err)
			return false
		}
		member = fetched
	}
	return discord.HasRole(member, roleID)
}

// CheckGuild reports the guild state in channelID and whether it is ready
func (m *Manager) CheckGuild(ctx context.Context, channelID string) bool {
	if m.cfg.Provisioner == nil {
		return true
	}
	problems := m.cfg.Provisioner.CheckGuild(ctx)
	if len(problems) > 0 {
		m.say(channelID, "GUILD_NOT_OK", " * "+strings.Join(problems, "\n * "))
		return false
	}
	m.say(channelID, "GUILD_OK")
	return true
}

func (m *Manager) cmdHelp(_ context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	m.say(r.ChannelID, "HELP")
	return nil
}

func (m *Manager) cmdAdminTool(ctx context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	m.ShowListeners(ctx, r.ChannelID, KindUtility)
	return nil
}

func (m *Manager) cmdUpdate(force bool) command {
	return func(ctx context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
		if m.cfg.Coordinator == nil {
			return nil
		}
		m.grantAdminIfUnset(r.UserID, r.ChannelID)
		if err := m.cfg.Coordinator.UpdateGuild(ctx, r.ChannelID, force, force); err != nil {
			m.log.Error("updating guild %s: %v", m.guildID, err)
			m.say(r.ChannelID, "UPDATE_FAILED", discord.ErrorText(err))
			return nil
		}
		m.grantAdminIfUnset(r.UserID, r.ChannelID)
		m.say(r.ChannelID, "UPDATE_DONE")
		return nil
	}
}

func (m *Manager) cmdCheck(ctx context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	m.CheckGuild(ctx, r.ChannelID)
	return nil
}

func (m *Manager) cmdBoard(ctx context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	if m.CheckGuild(ctx, r.ChannelID) || m.dangerPressed(r) {
		m.ShowListeners(ctx, r.ChannelID, KindGame)
	}
	return nil
}

func (m *Manager) cmdClean(ctx context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	if !m.dangerPressed(r) {
		m.say(r.ChannelID, "DANGER_REQUIRED")
		return nil
	}
	if m.cfg.Provisioner == nil {
		return nil
	}
	m.log.Critical("cleaning game channels of %s", m.guildID)
	if err := m.cfg.Provisioner.CleanChannels(ctx, m.cfg.CleanIgnoreKeys, []string{m.cfg.BoardChannelKey}); err != nil {
		m.log.Error("cleaning channels: %v", err)
		m.say(r.ChannelID, "UPDATE_FAILED", discord.ErrorText(err))
		return nil
	}
	if err := m.ShowControlPanel(ctx, ""); err != nil {
		m.log.Error("showing control panel after clean: %v", err)
	}
	return nil
}

func (m *Manager) cmdInvite(ctx context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	publish := m.dangerPressed(r)
	if m.cfg.Provisioner == nil {
		return nil
	}
	invite, err := m.cfg.Provisioner.CreateInvite(ctx, m.cfg.InviteChannelKey, InviteMaxUses, InviteMaxAge)
	if err != nil {
		m.log.Warn("creating invite: %v", err)
		discord.SafeSend(m.session, m.log, r.ChannelID, discord.ErrorText(err))
		return nil
	}
	url := "https://discord.gg/" + invite.Code
	m.say(r.ChannelID, "INVITE", url)
	if publish && m.cfg.Website != nil {
		if err := m.cfg.Website.PublishInvite(ctx, m.guildID, url); err != nil {
			m.log.Warn("publishing invite: %v", err)
			discord.SafeSend(m.session, m.log, r.ChannelID, discord.ErrorText(err))
			return nil
		}
		m.say(r.ChannelID, "INVITE_PUBLISHED")
	}
	return nil
}

func (m *Manager) cmdInviteRemoved(ctx context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	if !m.dangerPressed(r) || m.cfg.Website == nil {
		return nil
	}
	if err := m.cfg.Website.DeleteInvite(ctx, m.guildID); err != nil {
		m.log.Warn("deleting website invite: %v", err)
		return nil
	}
	m.say(r.ChannelID, "INVITE_DELETED")
	return nil
}

func (m *Manager) cmdVersion(ctx context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	if !m.dangerPressed(r) {
		m.say(r.ChannelID, "DANGER_REQUIRED")
		return nil
	}
	m.showVersionDialog(ctx, r.ChannelID)
	return nil
}

func (m *Manager) cmdInfinity(_ context.Context, r *discordgo.MessageReaction, _ *discordgo.Member) error {
	if !m.grantAdminIfUnset(r.UserID, r.ChannelID) {
		egg := easterEggs[rand.Intn(len(easterEggs))]
		discord.SafeReactionAdd(m.session, m.log, r.ChannelID, r.MessageID, egg)
	}
	return nil
}

func (m *Manager) cmdLeave(ctx context.Context, r *discordgo.MessageReaction, member *discordgo.Member) error {
	if !m.dangerPressed(r) || !m.isAdmin(r.UserID, member) {
		m.say(r.ChannelID, "DANGER_REQUIRED")
		return nil
	}
	m.say(r.ChannelID, "LEAVING")
	if m.cfg.Website != nil {
		if err := m.cfg.Website.DeleteInvite(ctx, m.guildID); err != nil {
			m.log.Warn("deleting website invite: %v", err)
		}
	}
	if m.cfg.Coordinator == nil {
		return nil
	}
	return m.cfg.Coordinator.LeaveGuild(ctx)
}
