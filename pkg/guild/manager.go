package guild

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/audio"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/history"
	"github.com/fadedpez/gamemaster/pkg/listener"
	"github.com/fadedpez/gamemaster/pkg/provision"
)

// InviteURL is the authorization link logged when the bot runs nowhere
const InviteURL = "https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=8"

// Website mirrors invites and bot availability
type Website interface {
	PublishInvite(ctx context.Context, guildID, url string) error
	DeleteInvite(ctx context.Context, guildID string) error
	SetAvailability(ctx context.Context, available bool) error
}

// Config holds the collaborators of a GuildManager
type Config struct {
	Session  discord.SessionHandler
	Catalog  *catalog.Catalog
	Registry *games.Registry
	History  history.Repository
	Website  Website
	Player   audio.Player
	SongsDir string
	Logger   *logging.Logger

	MaxGuilds       int
	MaxPending      int
	DefaultVersions []string
	// RemovePassword ends the other sessions, KickPassword also leaves their guilds.
	RemovePassword string
	KickPassword   string
	Workers        int
}

// GuildManager admits guilds up to MaxGuilds and keeps the rest pending
type GuildManager struct {
	cfg      Config
	session  discord.SessionHandler
	messages *catalog.Messages
	log      *logging.Logger

	admission sync.Mutex

	mu       sync.RWMutex
	sessions map[string]*Session
	pending  map[string]*pendingGuild
	queue    []string
}

// NewGuildManager creates a manager with no admitted guild
func NewGuildManager(cfg Config) *GuildManager {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default
	}
	if cfg.MaxGuilds < 1 {
		cfg.MaxGuilds = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if len(cfg.DefaultVersions) == 0 && len(cfg.Catalog.Versions) > 0 {
		cfg.DefaultVersions = []string{cfg.Catalog.Versions[0].Name}
	}
	return &GuildManager{
		cfg:      cfg,
		session:  cfg.Session,
		messages: cfg.Catalog.Messages("guild", cfg.DefaultVersions).WithFallback(defaultTexts),
		log:      cfg.Logger.With("guilds"),
		sessions: map[string]*Session{},
		pending:  map[string]*pendingGuild{},
	}
}

// Session returns the session of an admitted guild
func (gm *GuildManager) Session(guildID string) (*Session, bool) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	s, ok := gm.sessions[guildID]
	return s, ok
}

// Sessions returns the admitted guild ids, sorted
func (gm *GuildManager) Sessions() []string {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	ids := make([]string, 0, len(gm.sessions))
	for id := range gm.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Pending returns the pending guild ids in arrival order
func (gm *GuildManager) Pending() []string {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return append([]string{}, gm.queue...)
}

// IsPending reports whether guildID waits for a free session
func (gm *GuildManager) IsPending(guildID string) bool {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	_, ok := gm.pending[guildID]
	return ok
}

// Available reports whether another guild can be admitted
func (gm *GuildManager) Available() bool {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.sessions) < gm.cfg.MaxGuilds
}

func (gm *GuildManager) setAvailability(ctx context.Context) {
	if gm.cfg.Website == nil {
		return
	}
	if err := gm.cfg.Website.SetAvailability(ctx, gm.Available()); err != nil {
		gm.log.Warn("publishing availability: %v", err)
	}
}

// InitGuilds admits the guilds the bot is a member of at startup
func (gm *GuildManager) InitGuilds(ctx context.Context, guildIDs []string) {
	for _, id := range guildIDs {
		if _, err := gm.AddGuild(ctx, id); err != nil {
			gm.log.Info("guild %s not admitted: %v", id, err)
		}
	}
	if len(guildIDs) == 0 {
		gm.log.Info("not in any guild, invite the bot with "+InviteURL, gm.session.BotUserID())
	}
	gm.setAvailability(ctx)
}

// AddGuild admits guildID, or queues it behind the pending panel when every
// session is taken. Admission is serialized.
func (gm *GuildManager) AddGuild(ctx context.Context, guildID string) (*Session, error) {
	gm.admission.Lock()
	defer gm.admission.Unlock()

	if s, ok := gm.Session(guildID); ok {
		return s, nil
	}

	if !gm.Available() {
		gm.refuse(ctx, guildID)
		return nil, types.NewGameError(types.ErrSessionCapacity,
			fmt.Sprintf("already running in %d guild(s)", gm.cfg.MaxGuilds))
	}

	versions := append([]string{}, gm.cfg.DefaultVersions...)
	s := newSession(gm, guildID, versions)
	gm.mu.Lock()
	gm.sessions[guildID] = s
	gm.dropPendingLocked(guildID)
	gm.mu.Unlock()
	gm.setAvailability(ctx)

	gm.log.Info("guild %s admitted", guildID)
	s.init(ctx)
	s.say(ctx, "", "READY", s.versionLabel())
	return s, nil
}

// refuse tells a guild there is no free session. A guild already pending
// only gets a reminder; a new one is queued or left when the queue is full.
func (gm *GuildManager) refuse(ctx context.Context, guildID string) {
	if p, ok := gm.pendingGuild(guildID); ok {
		gm.say(p.channelID, "NOT_AVAILABLE_YET")
		return
	}

	channelID := gm.noticeChannel(ctx, guildID)
	gm.say(channelID, "ALREADY_ELSEWHERE")

	gm.mu.RLock()
	full := len(gm.queue) >= gm.cfg.MaxPending
	gm.mu.RUnlock()
	if full {
		gm.log.Info("pending queue full, leaving guild %s", guildID)
		if err := gm.session.GuildLeave(guildID); err != nil {
			gm.log.Warn("leaving guild %s: %v", guildID, err)
		}
		return
	}
	gm.showPendingPanel(guildID, channelID)
}

// noticeChannel finds a text channel of a guild without provisioning it
func (gm *GuildManager) noticeChannel(ctx context.Context, guildID string) string {
	p := provision.New(gm.session, guildID, gm.cfg.Catalog, catalog.NewDirectory(), gm.log)
	id, err := p.ExistingTextChannel(ctx, BoardChannelKey)
	if err != nil {
		gm.log.Warn("no text channel in guild %s: %v", guildID, err)
		return ""
	}
	return id
}

func (gm *GuildManager) say(channelID, key string, args ...interface{}) {
	if channelID == "" {
		return
	}
	discord.SafeSend(gm.session, gm.log, channelID, gm.messages.Get(key, args...))
}

// RemoveGuild ends the session of guildID. With kick the bot leaves the
// guild, otherwise the guild is shown the pending panel. The first pending
// guild is then admitted.
func (gm *GuildManager) RemoveGuild(ctx context.Context, guildID string, kick bool) error {
	if err := gm.removeGuild(ctx, guildID, kick); err != nil {
		return err
	}
	gm.admitNext(ctx, guildID)
	return nil
}

func (gm *GuildManager) removeGuild(ctx context.Context, guildID string, kick bool) error {
	s := gm.takeSession(guildID)
	if s == nil {
		return types.NewGameError(types.ErrSessionNotFound, "no session for guild "+guildID)
	}
	s.Close(ctx)

	if kick {
		if err := gm.session.GuildLeave(guildID); err != nil {
			gm.log.Warn("leaving guild %s: %v", guildID, err)
		}
	} else {
		gm.showPendingPanel(guildID, gm.noticeChannel(ctx, guildID))
	}
	gm.log.Info("guild %s removed (kick=%t)", guildID, kick)
	gm.setAvailability(ctx)
	return nil
}

// GuildGone forgets a guild the bot is no longer a member of
func (gm *GuildManager) GuildGone(ctx context.Context, guildID string) {
	gm.mu.Lock()
	gm.dropPendingLocked(guildID)
	gm.mu.Unlock()

	s := gm.takeSession(guildID)
	if s == nil {
		return
	}
	s.Close(ctx)
	gm.log.Info("guild %s gone", guildID)
	gm.setAvailability(ctx)
	gm.admitNext(ctx, guildID)
}

func (gm *GuildManager) takeSession(guildID string) *Session {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	s, ok := gm.sessions[guildID]
	if !ok {
		return nil
	}
	delete(gm.sessions, guildID)
	return s
}

func (gm *GuildManager) admitNext(ctx context.Context, except string) {
	for _, id := range gm.Pending() {
		if id == except {
			continue
		}
		if !gm.Available() {
			return
		}
		if _, err := gm.AddGuild(ctx, id); err != nil {
			gm.log.Warn("admitting pending guild %s: %v", id, err)
		}
		return
	}
}

// UpdateGuild provisions the session's guild. The control panel is shown
// again when the board channel changed.
func (gm *GuildManager) UpdateGuild(ctx context.Context, s *Session, channelID string, force, clearReferences bool) error {
	suffix := ""
	if force {
		suffix = s.messages.Get("FORCED")
	}
	s.say(ctx, channelID, "UPDATING", suffix)

	before, _ := s.directory.ChannelID(BoardChannelKey)
	failed := s.provisioner.UpdateGuild(ctx, force, clearReferences)
	after, _ := s.directory.ChannelID(BoardChannelKey)
	if after != "" && after != before {
		if err := s.manager.ShowControlPanel(ctx, after); err != nil {
			s.log.Warn("showing control panel: %v", err)
		}
	}

	if len(failed) > 0 {
		return types.NewGameError(types.ErrPermissionDenied,
			"could not update "+strings.Join(failed, ", "))
	}
	s.say(ctx, channelID, "UPDATED")
	return nil
}

// ChangeVersion reloads every message bag and listener of the session
// with versions, then rebuilds the session.
func (gm *GuildManager) ChangeVersion(ctx context.Context, s *Session, versions []string, channelID string) error {
	label := strings.Join(versions, ", ")
	for _, v := range versions {
		if !gm.cfg.Catalog.HasVersion(v) {
			s.say(ctx, channelID, "RELOAD_FAILED", label)
			return types.NewGameError(types.ErrInvalidArgument, "unknown version "+v)
		}
	}

	s.say(ctx, channelID, "RELOADING", label)
	s.setVersions(versions)
	s.messages.Reload(versions, true)
	s.manager.Reload(versions, true)
	for _, l := range s.manager.Listeners() {
		l.Reload(versions, true)
	}
	s.reset(ctx)
	s.say(ctx, channelID, "RELOADED", label)
	gm.log.Info("guild %s reloaded with version(s) %s", s.guildID, label)
	return nil
}

// Dispatch routes ev to the session of its guild, to the pending panel of
// a queued guild, or to every session for events without a guild.
func (gm *GuildManager) Dispatch(ctx context.Context, ev *listener.Event) {
	if ev.Global() {
		gm.mu.RLock()
		sessions := make([]*Session, 0, len(gm.sessions))
		for _, s := range gm.sessions {
			sessions = append(sessions, s)
		}
		gm.mu.RUnlock()
		for _, s := range sessions {
			s.Dispatch(ctx, ev)
		}
		return
	}

	if s, ok := gm.Session(ev.GuildID); ok {
		s.Dispatch(ctx, ev)
		return
	}
	if gm.IsPending(ev.GuildID) {
		gm.handlePending(ctx, ev)
	}
}

// Close ends every session without leaving their guilds and waits for
// their events to drain.
func (gm *GuildManager) Close(ctx context.Context) {
	gm.mu.Lock()
	sessions := gm.sessions
	gm.sessions = map[string]*Session{}
	gm.mu.Unlock()

	for _, s := range sessions {
		s.Close(ctx)
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return
		}
	}
}
