// Package bot connects the Discord gateway to the guild manager.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/fadedpez/gamemaster/internal/config"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/guild"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

// Guilds is the part of the guild manager the gateway drives
type Guilds interface {
	InitGuilds(ctx context.Context, guildIDs []string)
	AddGuild(ctx context.Context, guildID string) (*guild.Session, error)
	GuildGone(ctx context.Context, guildID string)
	Dispatch(ctx context.Context, ev *listener.Event)
	Close(ctx context.Context)
}

var _ Guilds = (*guild.GuildManager)(nil)

// Bot represents the Discord bot and its dependencies
type Bot struct {
	config  *config.Config
	session discord.SessionHandler
	guilds  Guilds
	log     *logging.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	removers []func()

	mu         sync.Mutex
	closing    bool
	startup    map[string]struct{}
	shutdownWg sync.WaitGroup
}

// New creates a new instance of Bot
func New(cfg *config.Config, session discord.SessionHandler, guilds Guilds, log *logging.Logger) *Bot {
	if log == nil {
		log = logging.Default
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		config:  cfg,
		session: session,
		guilds:  guilds,
		log:     log.With("bot"),
		ctx:     ctx,
		cancel:  cancel,
		startup: map[string]struct{}{},
	}
}

// Start registers the gateway handlers and connects to Discord
func (b *Bot) Start() error {
	b.registerHandlers()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	b.log.Info("connected to Discord (%s)", b.config.Environment)
	return nil
}

// Shutdown stops handling events, closes every session and the connection.
// It waits for in-flight handlers unless ctx ends first.
func (b *Bot) Shutdown(ctx context.Context) {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()

	for _, remove := range b.removers {
		remove()
	}
	b.removers = nil

	done := make(chan struct{})
	go func() {
		b.shutdownWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		b.log.Warn("shutdown timed out waiting for handlers")
	}

	b.guilds.Close(ctx)
	b.cancel()

	if err := b.session.Close(); err != nil {
		b.log.Error("closing Discord session: %v", err)
	}
}

// enter marks a handler in flight. It reports false once shutdown began.
func (b *Bot) enter() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closing {
		return false
	}
	b.shutdownWg.Add(1)
	return true
}
