package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

func (b *Bot) registerHandlers() {
	b.removers = append(b.removers,
		b.session.AddHandler(b.handleReady),
		b.session.AddHandler(b.handleGuildCreate),
		b.session.AddHandler(b.handleGuildDelete),
		b.session.AddHandler(b.handleEvent),
	)
}

// handleReady admits the guilds the bot already belongs to
func (b *Bot) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	if !b.enter() {
		return
	}
	defer b.shutdownWg.Done()

	ids := make([]string, 0, len(r.Guilds))
	b.mu.Lock()
	for _, g := range r.Guilds {
		ids = append(ids, g.ID)
		b.startup[g.ID] = struct{}{}
	}
	b.mu.Unlock()

	name := ""
	if r.User != nil {
		name = r.User.Username
	}
	b.log.Info("ready as %s in %d guild(s)", name, len(ids))
	b.guilds.InitGuilds(b.ctx, ids)
}

// fromStartup reports whether the guild was announced by Ready, forgetting it
func (b *Bot) fromStartup(guildID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.startup[guildID]; ok {
		delete(b.startup, guildID)
		return true
	}
	return false
}

// handleGuildCreate admits a guild the bot just joined. The creates that
// follow Ready are already handled by InitGuilds.
func (b *Bot) handleGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || b.fromStartup(g.ID) || !b.enter() {
		return
	}
	defer b.shutdownWg.Done()

	b.log.Info("joined guild %s (%s)", g.Name, g.ID)
	if _, err := b.guilds.AddGuild(b.ctx, g.ID); err != nil {
		if types.IsGameError(err, types.ErrSessionCapacity) {
			b.log.Info("guild %s queued: %v", g.ID, err)
			return
		}
		b.log.Error("admitting guild %s: %v", g.ID, err)
	}
}

// handleGuildDelete forgets a guild the bot left or was removed from.
// Outages only mark the guild unavailable and are ignored.
func (b *Bot) handleGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Guild == nil {
		return
	}
	if g.Unavailable {
		b.log.Warn("guild %s unavailable", g.ID)
		return
	}
	if !b.enter() {
		return
	}
	defer b.shutdownWg.Done()

	b.log.Info("left guild %s", g.ID)
	b.guilds.GuildGone(b.ctx, g.ID)
}

// handleEvent converts every gateway event listeners understand and routes it
func (b *Bot) handleEvent(_ *discordgo.Session, payload interface{}) {
	ev, ok := listener.FromDiscord(payload)
	if !ok || !b.enter() {
		return
	}
	defer b.shutdownWg.Done()

	b.log.Debug("%s event for guild %q", ev.Type, ev.GuildID)
	b.guilds.Dispatch(b.ctx, ev)
}
