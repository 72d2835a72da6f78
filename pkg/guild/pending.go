package guild

import (
	"context"
	"strings"

	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

type pendingGuild struct {
	channelID       string
	messageID       string
	waitingPassword bool
}

func (gm *GuildManager) pendingGuild(guildID string) (pendingGuild, bool) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	p, ok := gm.pending[guildID]
	if !ok {
		return pendingGuild{}, false
	}
	return *p, true
}

func (gm *GuildManager) dropPendingLocked(guildID string) {
	if _, ok := gm.pending[guildID]; !ok {
		return
	}
	delete(gm.pending, guildID)
	for i, id := range gm.queue {
		if id == guildID {
			gm.queue = append(gm.queue[:i], gm.queue[i+1:]...)
			break
		}
	}
}

// showPendingPanel queues guildID and posts the pending options in channelID
func (gm *GuildManager) showPendingPanel(guildID, channelID string) {
	p := &pendingGuild{channelID: channelID}
	if channelID != "" {
		if msg := discord.SafeSend(gm.session, gm.log, channelID, gm.messages.Get("PENDING_OPTIONS")); msg != nil {
			p.messageID = msg.ID
			for _, e := range pendingOrder {
				discord.SafeReactionAdd(gm.session, gm.log, channelID, msg.ID, e)
			}
		}
	}

	gm.mu.Lock()
	if _, queued := gm.pending[guildID]; !queued {
		gm.queue = append(gm.queue, guildID)
	}
	gm.pending[guildID] = p
	gm.mu.Unlock()
	gm.log.Info("guild %s pending", guildID)
}

func (gm *GuildManager) handlePending(ctx context.Context, ev *listener.Event) {
	switch ev.Type {
	case listener.EventReactionAdd:
		if r := ev.ReactionAdded(); r != nil {
			gm.pendingReaction(ctx, ev.GuildID, r.MessageID, r.UserID, discord.EmojiKey(r.Emoji))
		}
	case listener.EventMessageCreate:
		if m := ev.Message(); m != nil && m.Author != nil && !m.Author.Bot {
			gm.pendingPassword(ctx, ev.GuildID, m.ChannelID, m.Content)
		}
	}
}

func (gm *GuildManager) pendingReaction(ctx context.Context, guildID, messageID, userID, emoji string) {
	if userID == gm.session.BotUserID() {
		return
	}
	p, ok := gm.pendingGuild(guildID)
	if !ok || p.messageID == "" || p.messageID != messageID {
		return
	}

	switch emoji {
	case PendingQuit:
		gm.say(p.channelID, "LEAVING")
		gm.mu.Lock()
		gm.dropPendingLocked(guildID)
		gm.mu.Unlock()
		if err := gm.session.GuildLeave(guildID); err != nil {
			gm.log.Warn("leaving guild %s: %v", guildID, err)
		}
	case PendingRetry:
		gm.say(p.channelID, "RETRYING")
		if _, err := gm.AddGuild(ctx, guildID); err == nil {
			gm.say(p.channelID, "ADDED")
		}
	case PendingForce:
		gm.mu.Lock()
		if cur, ok := gm.pending[guildID]; ok {
			cur.waitingPassword = true
		}
		gm.mu.Unlock()
		gm.say(p.channelID, "ENTER_PASSWORD")
	}
}

// pendingPassword checks the first message after the force button. Either
// password frees every session and admits the guild that typed it.
func (gm *GuildManager) pendingPassword(ctx context.Context, guildID, channelID, content string) {
	gm.mu.Lock()
	p, ok := gm.pending[guildID]
	waiting := ok && p.waitingPassword
	if waiting {
		p.waitingPassword = false
	}
	gm.mu.Unlock()
	if !waiting {
		return
	}

	password := strings.TrimSpace(content)
	var kick bool
	switch {
	case gm.cfg.KickPassword != "" && password == gm.cfg.KickPassword:
		kick = true
	case gm.cfg.RemovePassword != "" && password == gm.cfg.RemovePassword:
	default:
		gm.say(channelID, "BAD_PASSWORD")
		return
	}

	for _, id := range gm.Sessions() {
		if err := gm.removeGuild(ctx, id, kick); err != nil {
			gm.log.Warn("removing guild %s: %v", id, err)
		}
	}
	if kick {
		gm.say(channelID, "KICKED_OTHERS")
	} else {
		gm.say(channelID, "REMOVED_OTHERS")
	}
	if _, err := gm.AddGuild(ctx, guildID); err != nil {
		gm.say(channelID, "ADD_FAILED", discord.ErrorText(err))
		return
	}
	gm.say(channelID, "ADDED")
}
