package manager

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

func (m *Manager) fromBot(userID string, member *discordgo.Member) bool {
	if userID != "" && userID == m.session.BotUserID() {
		return true
	}
	return member != nil && member.User != nil && member.User.Bot
}

func (m *Manager) onReactionAdd(ctx context.Context, ev *listener.Event) error {
	r := ev.ReactionAdded()
	if r == nil || m.fromBot(r.UserID, r.Member) {
		return nil
	}
	emoji := discord.EmojiKey(r.Emoji)

	if m.IsControlPanel(r.MessageID) {
		return m.runCommand(ctx, m.commands, r.MessageReaction, r.Member, emoji)
	}
	if m.isVersionChoice(r.MessageID) {
		return m.chooseVersion(ctx, r.MessageReaction, emoji)
	}
	c, ok := m.menuFor(r.MessageID)
	if !ok {
		return nil
	}

	switch emoji {
	case ActionPlay:
		started, err := c.Start(ctx)
		if err != nil {
			return m.report(r.ChannelID, c, err)
		}
		if _, isHandle := c.(*listener.ChannelHandle); isHandle {
			m.UpdateListener(ctx, c)
		} else if !started && c.Active() {
			m.StartListener(ctx, c)
		}
	case ActionPause:
		if _, isHandle := c.(*listener.ChannelHandle); !isHandle {
			m.CloseListener(ctx, c)
		}
	case ActionStop:
		stopped, err := c.Stop(ctx)
		if err != nil {
			return m.report(r.ChannelID, c, err)
		}
		if !stopped {
			m.UpdateListener(ctx, c)
		}
	case ActionFinish:
		if !c.IsGame() {
			return nil
		}
		if err := c.HelpedVictory(ctx); err != nil {
			return m.report(r.ChannelID, c, err)
		}
		m.UpdateListener(ctx, c)
	case ActionSimple:
		if c.SimpleMode().IsPresent() {
			c.SetSimpleMode(true)
			m.UpdateListener(ctx, c)
		}
	case ActionReset:
		rc, ok := c.(listener.Resettable)
		if !ok {
			return nil
		}
		if err := rc.Reset(ctx); err != nil {
			return m.report(r.ChannelID, c, err)
		}
		m.UpdateListener(ctx, c)
	}
	return nil
}

func (m *Manager) onReactionRemove(ctx context.Context, ev *listener.Event) error {
	r := ev.ReactionRemoved()
	if r == nil || m.fromBot(r.UserID, nil) {
		return nil
	}
	emoji := discord.EmojiKey(r.Emoji)

	if m.IsControlPanel(r.MessageID) {
		return m.runCommand(ctx, m.commandsOff, r.MessageReaction, nil, emoji)
	}
	c, ok := m.menuFor(r.MessageID)
	if !ok {
		return nil
	}

	switch emoji {
	case ActionPause:
		if _, isHandle := c.(*listener.ChannelHandle); !isHandle && c.Active() {
			m.StartListener(ctx, c)
		}
	case ActionSimple:
		if c.SimpleMode().IsPresent() {
			c.SetSimpleMode(false)
			m.UpdateListener(ctx, c)
		}
	}
	return nil
}

// report shows a failed menu action in the menu's channel. The error is
// not passed on since the action already ended.
func (m *Manager) report(channelID string, c listener.Controllable, err error) error {
	m.log.Warn("action on %s failed: %v", c.Name(), err)
	discord.SafeSend(m.session, m.log, channelID, discord.ErrorText(err))
	return nil
}
