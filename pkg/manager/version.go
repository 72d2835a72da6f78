package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
)

func (m *Manager) showVersionDialog(ctx context.Context, channelID string) {
	if m.cfg.Catalog == nil {
		return
	}
	lines := make([]string, 0, len(m.cfg.Catalog.Versions))
	for _, v := range m.cfg.Catalog.Versions {
		lines = append(lines, fmt.Sprintf("%s : %s", v.Emoji, v.Description))
	}
	msg := m.say(channelID, "CHANGE_VERSION", strings.Join(lines, "\n"))
	if msg == nil {
		return
	}

	m.mu.Lock()
	if m.versionTimer != nil {
		m.versionTimer.Stop()
	}
	m.versionChoice = msg.ID
	m.versionTimer = time.AfterFunc(m.cfg.VersionDialogTTL, func() {
		m.expireVersionDialog(channelID, msg.ID)
	})
	m.mu.Unlock()

	for _, v := range m.cfg.Catalog.Versions {
		discord.SafeReactionAdd(m.session, m.log, channelID, msg.ID, v.Emoji)
	}
}

func (m *Manager) expireVersionDialog(channelID, messageID string) {
	m.mu.Lock()
	if m.versionChoice == messageID {
		m.versionChoice = ""
	}
	m.mu.Unlock()
	if err := m.session.ChannelMessageDelete(channelID, messageID); err != nil {
		m.log.Debug("deleting version dialog: %v", err)
	}
}

func (m *Manager) isVersionChoice(messageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return messageID != "" && m.versionChoice == messageID
}

// VersionChoice returns the pending version dialog, if any
func (m *Manager) VersionChoice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versionChoice
}

// chooseVersion resolves the dialog. The dialog is dropped first so a late
// reaction on it is ignored.
func (m *Manager) chooseVersion(ctx context.Context, r *discordgo.MessageReaction, emoji string) error {
	m.mu.Lock()
	m.versionChoice = ""
	m.mu.Unlock()

	v, ok := m.cfg.Catalog.VersionByEmoji(emoji)
	if !ok {
		return nil
	}
	if m.cfg.Coordinator != nil {
		if err := m.cfg.Coordinator.ChangeVersion(ctx, []string{v.Name}, r.ChannelID); err != nil {
			m.log.Error("changing version to %s: %v", v.Name, err)
			discord.SafeSend(m.session, m.log, r.ChannelID, discord.ErrorText(err))
			return nil
		}
	}
	m.say(r.ChannelID, "VERSION_CHANGED", v.Name)
	return nil
}
