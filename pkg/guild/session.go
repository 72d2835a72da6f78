// Package guild runs one game session per admitted guild and decides which
// guilds are admitted, queueing the others behind a pending panel.
package guild

import (
	"context"
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
	"github.com/fadedpez/gamemaster/pkg/manager"
	"github.com/fadedpez/gamemaster/pkg/menu"
	"github.com/fadedpez/gamemaster/pkg/provision"
	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
)

// BoardChannelKey is the channel the control panel and guild notices go to
const BoardChannelKey = "BOARD"

// Team count bounds
const (
	DefaultTeams = 3
	MaxTeams     = 3
)

// Session is the context of one admitted guild: its listeners, the
// reference directory and the worker pool events are handled on.
type Session struct {
	id          string
	guildID     string
	owner       *GuildManager
	session     discord.SessionHandler
	catalog     *catalog.Catalog
	directory   *catalog.Directory
	provisioner *provision.GuildProvisioner
	manager     *manager.Manager
	engine      *menu.Engine
	roles       *menu.RoleMenu
	jingles     *menu.JinglePalette
	player      audio.Player
	songsDir    string
	recorder    *history.Recorder
	messages    *catalog.Messages
	log         *logging.Logger

	mu       sync.RWMutex
	versions []string
	teams    int
	closed   bool
	pool     *workerpool.WorkerPool
	done     chan struct{}
}

var _ manager.Coordinator = (*Session)(nil)

func newSession(gm *GuildManager, guildID string, versions []string) *Session {
	cfg := gm.cfg
	id := uuid.NewString()
	log := cfg.Logger.With("guild " + guildID)

	s := &Session{
		id:        id,
		guildID:   guildID,
		owner:     gm,
		session:   cfg.Session,
		catalog:   cfg.Catalog,
		player:    cfg.Player,
		songsDir:  cfg.SongsDir,
		directory: catalog.NewDirectory(),
		messages:  cfg.Catalog.Messages("guild", versions).WithFallback(defaultTexts),
		log:       log,
		versions:  append([]string{}, versions...),
		teams:     DefaultTeams,
		pool:      workerpool.New(cfg.Workers),
		done:      make(chan struct{}),
	}
	s.provisioner = provision.New(cfg.Session, guildID, cfg.Catalog, s.directory, log)
	s.engine = menu.NewEngine(cfg.Session, s.directory, log)
	s.roles = menu.NewRoleMenu(s.engine, guildID)
	if cfg.Player != nil {
		s.jingles = menu.NewJinglePalette(cfg.Session, cfg.Player, s.directory, guildID, log)
	}
	if cfg.History != nil {
		s.recorder = history.NewRecorder(cfg.History, guildID, log)
	}

	mcfg := manager.Config{
		Session:     cfg.Session,
		GuildID:     guildID,
		Catalog:     cfg.Catalog,
		Directory:   s.directory,
		Provisioner: s.provisioner,
		Coordinator: s,
		Messages:    cfg.Catalog.Messages("manager", versions),
		Versions:    s.Versions,
		Logger:      log,
	}
	if cfg.Website != nil {
		mcfg.Website = cfg.Website
	}
	if s.recorder != nil {
		mcfg.Observer = s.recorder
	}
	s.manager = manager.New(mcfg)
	return s
}

// ID is unique per admission of the guild
func (s *Session) ID() string { return s.id }

// GuildID returns the guild of the session
func (s *Session) GuildID() string { return s.guildID }

// Manager returns the listener manager of the session
func (s *Session) Manager() *manager.Manager { return s.manager }

// Directory returns the references resolved for this guild
func (s *Session) Directory() *catalog.Directory { return s.directory }

// Provisioner returns the guild provisioner of the session
func (s *Session) Provisioner() *provision.GuildProvisioner { return s.provisioner }

// Versions returns the selected catalog versions
func (s *Session) Versions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.versions...)
}

func (s *Session) setVersions(versions []string) {
	s.mu.Lock()
	s.versions = append([]string{}, versions...)
	s.mu.Unlock()
}

// Teams returns the configured number of teams
func (s *Session) Teams() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teams
}

// SetTeams changes the number of teams
func (s *Session) SetTeams(_ context.Context, n int) error {
	if n < 1 || n > MaxTeams {
		return types.NewGameError(types.ErrInvalidArgument, "team count must be between 1 and 3")
	}
	s.mu.Lock()
	s.teams = n
	s.mu.Unlock()
	s.log.Info("team count set to %d", n)
	return nil
}

func (s *Session) env() *games.Env {
	return &games.Env{
		Session:   s.session,
		GuildID:   s.guildID,
		Catalog:   s.catalog,
		Directory: s.directory,
		Manager:   s.manager,
		Roles:     s.roles,
		Jingles:   s.jingles,
		History:   s.recorder,
		Logger:    s.log,
		Player:    s.player,
		SongsDir:  s.songsDir,

		Versions:      s.Versions,
		Teams:         s.Teams,
		SetTeams:      s.SetTeams,
		ChangeVersion: s.ChangeVersion,
		Leave:         s.LeaveGuild,
	}
}

func (s *Session) versionLabel() string {
	if v := s.Versions(); len(v) > 0 {
		return strings.Join(v, ", ")
	}
	return catalog.DefaultVersion
}

// say sends a guild notice, in channelID or on the board
func (s *Session) say(ctx context.Context, channelID, key string, args ...interface{}) {
	if channelID == "" {
		id, err := s.provisioner.SafeTextChannel(ctx, BoardChannelKey)
		if err != nil {
			s.log.Warn("no channel for %s: %v", key, err)
			return
		}
		channelID = id
	}
	discord.SafeSend(s.session, s.log, channelID, s.messages.Get(key, args...))
}

// init resolves the guild references, registers every listener and shows
// the control panel.
func (s *Session) init(ctx context.Context) {
	if err := s.provisioner.Fetch(ctx); err != nil {
		s.log.Warn("fetching guild state: %v", err)
	}

	s.manager.AddListener(ctx, s.engine.Listener("reaction-menus"))
	if s.jingles != nil {
		s.manager.AddListener(ctx, s.jingles.Listener("jingle-palette"))
	}
	if s.owner.cfg.Registry != nil {
		built, err := s.owner.cfg.Registry.BuildAll(s.env())
		if err != nil {
			s.log.Error("building listeners: %v", err)
		}
		s.manager.AddListeners(ctx, built)
	}

	if err := s.manager.ShowControlPanel(ctx, ""); err != nil {
		s.log.Warn("showing control panel: %v", err)
	}
	s.log.Info("session %s ready with version(s) %s", s.id, s.versionLabel())
}

// reset drops every listener and builds them again for the current versions
func (s *Session) reset(ctx context.Context) {
	s.manager.Clear(ctx)
	s.init(ctx)
}

// Dispatch queues ev for every active listener of the session. Events
// dispatched after Close are dropped.
func (s *Session) Dispatch(ctx context.Context, ev *listener.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.pool.Submit(func() {
		for _, l := range s.manager.ActiveListeners() {
			s.handle(ctx, l, ev)
		}
	})
}

func (s *Session) handle(ctx context.Context, l *listener.Listener, ev *listener.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Critical("listener %s panicked on %s: %v", l.Name(), ev.Type, r)
		}
	}()
	if err := l.Handle(ctx, ev); err != nil {
		s.log.Error("listener %s failed on %s: %v", l.Name(), ev.Type, err)
	}
}

// Close stops every listener and drains the pool in the background. Done is
// closed once queued events are handled.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	go func() {
		s.pool.StopWait()
		close(s.done)
	}()
	s.manager.Clear(ctx)
	s.log.Info("session %s closed", s.id)
}

// Done is closed when a closed session has drained its events
func (s *Session) Done() <-chan struct{} { return s.done }

// UpdateGuild provisions the guild from the control panel
func (s *Session) UpdateGuild(ctx context.Context, channelID string, force, clearReferences bool) error {
	return s.owner.UpdateGuild(ctx, s, channelID, force, clearReferences)
}

// ChangeVersion reloads the session with versions
func (s *Session) ChangeVersion(ctx context.Context, versions []string, channelID string) error {
	return s.owner.ChangeVersion(ctx, s, versions, channelID)
}

// LeaveGuild ends the session and leaves the guild
func (s *Session) LeaveGuild(ctx context.Context) error {
	return s.owner.RemoveGuild(ctx, s.guildID, true)
}
