package manager

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

// Kind selects which listeners ShowListeners renders
type Kind int

const (
	KindAny Kind = iota
	KindGame
	KindUtility
)

func (k Kind) matches(l *listener.Listener) bool {
	switch k {
	case KindGame:
		return l.IsGame()
	case KindUtility:
		return !l.IsGame()
	}
	return true
}

func (m *Manager) roleMention(key string) string {
	if id, ok := m.cfg.Directory.RoleID(key); ok {
		return "<@&" + id + ">"
	}
	return key
}

func (m *Manager) text(key string, args ...interface{}) string {
	return expand(m.messages.Get(key, args...), map[string]string{
		"dev":      m.roleMention(m.cfg.AdminRoleKey),
		"master":   m.roleMention(m.cfg.MasterRoleKey),
		"versions": strings.Join(m.cfg.Versions(), ", "),
	})
}

func (m *Manager) say(channelID, key string, args ...interface{}) *discordgo.Message {
	return discord.SafeSend(m.session, m.log, channelID, m.text(key, args...))
}

// ShowListeners renders one menu per visible listener of kind in channelID.
// Channel-scoped games get an extra menu per allowed channel.
func (m *Manager) ShowListeners(ctx context.Context, channelID string, kind Kind) {
	listeners := m.Listeners()
	if kind == KindGame && len(listeners) > 0 {
		m.say(channelID, "GAME_BOARD_INTRO")
	}

	for _, l := range listeners {
		if !l.ShowInManager() || !kind.matches(l) {
			continue
		}
		msg, err := m.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content: m.messages.Get("LISTENER_TITLE", l.Name()),
			Embed:   &discordgo.MessageEmbed{Description: l.Description()},
		})
		if err != nil {
			m.log.Warn("rendering menu of %s: %v", l.Name(), err)
			continue
		}
		m.registerMenu(l, channelID, msg.ID)

		actions := []string{ActionPlay, ActionPause, ActionStop}
		if l.IsGame() {
			actions = append(actions, ActionFinish)
			if l.SimpleMode().IsPresent() {
				actions = append(actions, ActionSimple)
			}
		}
		m.addReactions(channelID, msg.ID, actions)

		if l.HasChannelScope() {
			m.showChannels(l, channelID)
		}
	}
	m.UpdateListeners(ctx)
}

func (m *Manager) showChannels(l *listener.Listener, channelID string) {
	for _, gameChannel := range l.ChannelsList() {
		msg, err := m.session.ChannelMessageSend(channelID, m.messages.Get("CHANNEL_TITLE", l.Name(), gameChannel))
		if err != nil {
			m.log.Warn("rendering channel %s of %s: %v", gameChannel, l.Name(), err)
			continue
		}
		m.registerMenu(l.ChannelHandle(gameChannel), channelID, msg.ID)
		m.addReactions(channelID, msg.ID, []string{ActionPlay, ActionStop, ActionFinish, ActionReset})
	}
}

func (m *Manager) addReactions(channelID, messageID string, emojis []string) {
	for _, e := range emojis {
		discord.SafeReactionAdd(m.session, m.log, channelID, messageID, e)
	}
}

// ShowControlPanel renders the control panel in channelID, or in the board
// channel when channelID is empty.
func (m *Manager) ShowControlPanel(ctx context.Context, channelID string) error {
	if channelID == "" {
		if m.cfg.Provisioner == nil {
			return types.NewGameError(types.ErrInvalidConfiguration, "no channel for the control panel")
		}
		id, err := m.cfg.Provisioner.SafeTextChannel(ctx, m.cfg.BoardChannelKey)
		if err != nil {
			return err
		}
		channelID = id
	}

	msg, err := m.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: m.text("CONTROL_PANEL"),
	})
	if err != nil {
		return types.FromDiscord(err, "send control panel")
	}
	m.mu.Lock()
	m.controlBoards[msg.ID] = struct{}{}
	m.mu.Unlock()
	m.addReactions(channelID, msg.ID, controlPanelOrder)
	m.log.Info("control panel shown in %s", channelID)
	return nil
}

// IsControlPanel reports whether messageID is a control panel
func (m *Manager) IsControlPanel(messageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.controlBoards[messageID]
	return ok
}
