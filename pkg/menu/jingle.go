package menu

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/audio"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

// Palette control emojis. They cannot be used as jingle keys.
const (
	PauseEmoji = "⏸"
	StopEmoji  = "⏹️"
)

// Jingle plays Source when members react with Emoji
type Jingle struct {
	Emoji  string
	Source string
}

// JingleOptions is the policy of a jingle palette
type JingleOptions struct {
	RequiredRoles []string
	IgnoredRoles  []string
	// StopOnReactionRemoval pauses playback when a jingle reaction is removed.
	StopOnReactionRemoval bool
	UpdateReactions       bool
	// AutoRemove removes the member's reaction after play and stop.
	AutoRemove bool
}

// DefaultJingleOptions removes rejected and handled reactions
func DefaultJingleOptions() JingleOptions {
	return JingleOptions{UpdateReactions: true, AutoRemove: true}
}

type palette struct {
	jingles   map[string]string
	options   JingleOptions
	displayID string
}

// JinglePalette plays audio in the reacting member's voice channel.
type JinglePalette struct {
	session  discord.SessionHandler
	player   audio.Player
	resolver RoleResolver
	guildID  string
	log      *logging.Logger

	mu       sync.RWMutex
	palettes map[string]*palette
}

// NewJinglePalette creates an empty palette engine for guildID
func NewJinglePalette(session discord.SessionHandler, player audio.Player, resolver RoleResolver, guildID string, log *logging.Logger) *JinglePalette {
	if log == nil {
		log = logging.Default
	}
	return &JinglePalette{
		session:  session,
		player:   player,
		resolver: resolver,
		guildID:  guildID,
		log:      log.With("jingles"),
		palettes: map[string]*palette{},
	}
}

// Add turns a message into a palette and posts its status display below it.
func (p *JinglePalette) Add(ctx context.Context, channelID, messageID string, jingles []Jingle, opts JingleOptions) error {
	display, err := p.session.ChannelMessageSend(channelID, "⏲️🎵 Loading jingle palette...")
	if err != nil {
		return types.FromDiscord(err, "send jingle display")
	}

	pal := &palette{jingles: map[string]string{}, options: opts, displayID: display.ID}
	var order []string
	for _, j := range jingles {
		if j.Emoji == PauseEmoji || j.Emoji == StopEmoji {
			p.log.Warn("%s cannot be a key for a jingle", j.Emoji)
			continue
		}
		if _, dup := pal.jingles[j.Emoji]; !dup {
			order = append(order, j.Emoji)
		}
		pal.jingles[j.Emoji] = j.Source
	}
	p.mu.Lock()
	p.palettes[messageID] = pal
	p.mu.Unlock()

	p.clearReactions(channelID, messageID)
	for _, e := range append([]string{PauseEmoji, StopEmoji}, order...) {
		if err := p.session.MessageReactionAdd(channelID, messageID, e); err != nil {
			p.log.Error("creating jingle palette, invalid emoji %s? %v", e, err)
			p.clearReactions(channelID, messageID)
			p.display(channelID, pal, "❌ Jingle palette loading failed! Check the emojis.")
			return nil
		}
	}
	p.display(channelID, pal, "🎵 Jingle palette ready!")
	return nil
}

// Listener returns a hidden, auto-started listener feeding reactions to p
func (p *JinglePalette) Listener(name string) *listener.Listener {
	return listener.New(name,
		listener.WithHidden(),
		listener.WithAutoStart(true),
		listener.WithLogger(p.log),
		listener.WithHandler(listener.EventReactionAdd, func(ctx context.Context, ev *listener.Event) error {
			if r := ev.ReactionAdded(); r != nil && r.MessageReaction != nil {
				p.HandleAdd(ctx, r.MessageReaction, r.Member)
			}
			return nil
		}),
		listener.WithHandler(listener.EventReactionRemove, func(ctx context.Context, ev *listener.Event) error {
			if r := ev.ReactionRemoved(); r != nil && r.MessageReaction != nil {
				p.HandleRemove(ctx, r.MessageReaction)
			}
			return nil
		}),
	)
}

func (p *JinglePalette) clearReactions(channelID, messageID string) {
	if err := p.session.MessageReactionsRemoveAll(channelID, messageID); err != nil {
		p.log.Debug("clearing reactions of %s: %v", messageID, err)
	}
}

func (p *JinglePalette) lookup(messageID string) (*palette, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pal, ok := p.palettes[messageID]
	return pal, ok
}

func (p *JinglePalette) display(channelID string, pal *palette, content string) {
	if _, err := p.session.ChannelMessageEdit(channelID, pal.displayID, content); err != nil {
		p.log.Warn("display message of the palette is gone: %v", err)
	}
}

func (p *JinglePalette) remove(r *discordgo.MessageReaction, emoji string) {
	discord.SafeReactionRemove(p.session, p.log, r.ChannelID, r.MessageID, emoji, r.UserID)
}

func (p *JinglePalette) allowed(r *discordgo.MessageReaction, member *discordgo.Member, pal *palette, emoji string) bool {
	if member == nil {
		m, err := p.session.GuildMember(r.GuildID, r.UserID)
		if err == nil {
			member = m
		}
	}
	switch roleGate(p.resolver, member, pal.options.RequiredRoles, pal.options.IgnoredRoles) {
	case gateMissingRole:
		if pal.options.UpdateReactions {
			p.remove(r, emoji)
		}
		return false
	case gateIgnored:
		return false
	}
	return true
}

// HandleAdd plays, pauses or stops according to the reaction
func (p *JinglePalette) HandleAdd(ctx context.Context, r *discordgo.MessageReaction, member *discordgo.Member) {
	pal, ok := p.lookup(r.MessageID)
	if !ok || isBot(p.session, r, member) {
		return
	}
	emoji := discord.EmojiKey(r.Emoji)
	if !p.allowed(r, member, pal, emoji) {
		return
	}

	switch emoji {
	case StopEmoji:
		if err := p.player.Stop(p.guildID); err != nil {
			p.log.Warn("failed to stop jingle: %v", err)
			p.display(r.ChannelID, pal, "❌⏹ Failed to stop jingle!")
		} else {
			p.display(r.ChannelID, pal, "⏹ Jingle stopped!")
		}
		if pal.options.AutoRemove {
			p.remove(r, emoji)
		}
		return
	case PauseEmoji:
		if !p.player.IsPlaying(p.guildID) {
			if pal.options.AutoRemove {
				p.remove(r, emoji)
			}
			return
		}
		if err := p.player.Pause(p.guildID); err != nil {
			p.log.Warn("failed to pause jingle: %v", err)
			p.display(r.ChannelID, pal, "❌⏸️ Failed to pause jingle!")
			return
		}
		p.display(r.ChannelID, pal, "⏸️ Jingle paused: "+p.player.LastSource(p.guildID))
		return
	}

	source, ok := pal.jingles[emoji]
	if !ok {
		return
	}
	voiceChannel, err := p.session.VoiceChannelOf(p.guildID, r.UserID)
	if err != nil || voiceChannel == "" {
		p.log.Warn("cannot play jingle: %s is not in a voice channel", r.UserID)
		p.display(r.ChannelID, pal, "❌ Cannot play, you are not in a voice channel!")
		return
	}
	if err := p.player.Play(ctx, p.guildID, voiceChannel, source, true); err != nil {
		p.log.Warn("failed to play %s: %v", source, err)
		p.display(r.ChannelID, pal, "❌▶️ Failed to play "+source)
	} else {
		p.display(r.ChannelID, pal, "▶️ Playing "+source)
	}
	if pal.options.AutoRemove {
		p.remove(r, emoji)
	}
}

// HandleRemove resumes on pause removal and optionally pauses on jingle removal
func (p *JinglePalette) HandleRemove(ctx context.Context, r *discordgo.MessageReaction) {
	pal, ok := p.lookup(r.MessageID)
	if !ok || isBot(p.session, r, nil) {
		return
	}
	emoji := discord.EmojiKey(r.Emoji)
	if !p.allowed(r, nil, pal, emoji) {
		return
	}

	if emoji == PauseEmoji {
		if !p.player.IsPaused(p.guildID) {
			return
		}
		if err := p.player.Resume(p.guildID); err != nil {
			p.log.Warn("failed to resume jingle: %v", err)
			p.display(r.ChannelID, pal, "❌⏯️ Failed to resume jingle!")
			return
		}
		p.display(r.ChannelID, pal, "⏯️ Jingle resumed: "+p.player.LastSource(p.guildID))
		return
	}
	if _, ok := pal.jingles[emoji]; !ok || !pal.options.StopOnReactionRemoval {
		return
	}
	if err := p.player.Pause(p.guildID); err != nil {
		p.log.Warn("failed to pause jingle: %v", err)
		p.display(r.ChannelID, pal, "Failed to pause jingle!")
		return
	}
	p.display(r.ChannelID, pal, "Jingle paused!")
}
