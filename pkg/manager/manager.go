// Package manager owns the listeners of one game session: it registers
// them, renders the control panel and the listener menus, routes reactions
// on those messages and keeps the painted status in line with listener state.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

// DefaultVersionDialogTTL is how long the version choice stays open
const DefaultVersionDialogTTL = 2 * time.Minute

// Coordinator performs the session-wide operations triggered from the control panel.
type Coordinator interface {
	UpdateGuild(ctx context.Context, channelID string, force, clearReferences bool) error
	ChangeVersion(ctx context.Context, versions []string, channelID string) error
	LeaveGuild(ctx context.Context) error
}

// Provisioner is the part of guild provisioning the control panel uses.
type Provisioner interface {
	CheckGuild(ctx context.Context) []string
	SafeTextChannel(ctx context.Context, key string) (string, error)
	CleanChannels(ctx context.Context, ignoreCategories, forceChannels []string) error
	CreateInvite(ctx context.Context, channelKey string, maxUses, maxAge int) (*discordgo.Invite, error)
}

// Publisher mirrors invites on the companion website.
type Publisher interface {
	PublishInvite(ctx context.Context, guildID, url string) error
	DeleteInvite(ctx context.Context, guildID string) error
}

// Config holds the collaborators of a Manager
type Config struct {
	Session     discord.SessionHandler
	GuildID     string
	Catalog     *catalog.Catalog
	Directory   *catalog.Directory
	Provisioner Provisioner
	Coordinator Coordinator
	Website     Publisher
	Messages    *catalog.Messages
	Versions    func() []string
	Observer    listener.VictoryObserver
	Logger      *logging.Logger

	VersionDialogTTL time.Duration

	// Catalog keys used by the control panel
	AdminRoleKey     string
	MasterRoleKey    string
	BoardChannelKey  string
	InviteChannelKey string
	CleanIgnoreKeys  []string
}

type menuRef struct {
	channelID string
	messageID string
}

// Manager is the listener registry of one session.
type Manager struct {
	cfg         Config
	session     discord.SessionHandler
	guildID     string
	messages    *catalog.Messages
	log         *logging.Logger
	self        *listener.Listener
	commands    map[string]command
	commandsOff map[string]command

	mu             sync.Mutex
	listeners      []*listener.Listener
	channelHandles map[*listener.ChannelHandle]struct{}
	active         map[listener.Controllable]struct{}
	menus          map[string]listener.Controllable
	menuRefs       map[listener.Controllable][]menuRef
	controlBoards  map[string]struct{}
	versionChoice  string
	versionTimer   *time.Timer
}

var _ listener.Notifier = (*Manager)(nil)

// New creates the manager of one session and starts its own reaction listener.
func New(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default
	}
	if cfg.VersionDialogTTL == 0 {
		cfg.VersionDialogTTL = DefaultVersionDialogTTL
	}
	if cfg.Directory == nil {
		cfg.Directory = catalog.NewDirectory()
	}
	if cfg.Messages == nil {
		cfg.Messages = catalog.NewMessages(nil)
	}
	cfg.Messages.WithFallback(defaultTexts)
	if cfg.Versions == nil {
		cfg.Versions = func() []string { return nil }
	}
	setDefault(&cfg.AdminRoleKey, "DEV")
	setDefault(&cfg.MasterRoleKey, "MASTER")
	setDefault(&cfg.BoardChannelKey, "BOARD")
	setDefault(&cfg.InviteChannelKey, "WELCOME")
	if cfg.CleanIgnoreKeys == nil {
		cfg.CleanIgnoreKeys = []string{"CAT_MASTER", "CAT_DEV"}
	}

	m := &Manager{
		cfg:            cfg,
		session:        cfg.Session,
		guildID:        cfg.GuildID,
		messages:       cfg.Messages,
		log:            cfg.Logger.With("manager"),
		channelHandles: map[*listener.ChannelHandle]struct{}{},
		active:         map[listener.Controllable]struct{}{},
		menus:          map[string]listener.Controllable{},
		menuRefs:       map[listener.Controllable][]menuRef{},
		controlBoards:  map[string]struct{}{},
	}
	m.commands = m.controlPanelCommands()
	m.commandsOff = m.controlPanelRemoveCommands()
	m.self = listener.New("listener-manager",
		listener.WithHidden(),
		listener.WithLogger(cfg.Logger),
		listener.WithHandler(listener.EventReactionAdd, m.onReactionAdd),
		listener.WithHandler(listener.EventReactionRemove, m.onReactionRemove),
		listener.WithHandler(listener.EventReady, func(ctx context.Context, _ *listener.Event) error {
			m.UpdateListeners(ctx)
			return nil
		}),
	)
	_, _ = m.self.Start(context.Background())
	return m
}

func setDefault(s *string, def string) {
	if *s == "" {
		*s = def
	}
}

// GuildID returns the guild of the session
func (m *Manager) GuildID() string { return m.guildID }

// Messages returns the manager's message bag
func (m *Manager) Messages() *catalog.Messages { return m.messages }

// Reload reloads the manager's own messages
func (m *Manager) Reload(versions []string, clear bool) {
	m.messages.Reload(versions, clear)
}

// AddListener registers l, starting it if it auto-starts, and marks it
// active if it is running.
func (m *Manager) AddListener(ctx context.Context, l *listener.Listener) {
	l.SetNotifier(m)
	if m.cfg.Observer != nil {
		l.SetVictoryObserver(m.cfg.Observer)
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()

	if l.AutoStart() && !l.Active() {
		if _, err := l.Start(ctx); err != nil {
			m.log.Error("auto start of %s failed: %v", l.Name(), err)
		}
	}
	if l.Active() {
		m.StartListener(ctx, l)
	}
}

// AddListeners registers every listener in order
func (m *Manager) AddListeners(ctx context.Context, ls []*listener.Listener) {
	for _, l := range ls {
		m.AddListener(ctx, l)
	}
}

// RemoveListener stops and forgets l
func (m *Manager) RemoveListener(ctx context.Context, l *listener.Listener) {
	if _, err := l.Stop(ctx); err != nil {
		m.log.Warn("stopping %s: %v", l.Name(), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, other := range m.listeners {
		if other == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			break
		}
	}
	delete(m.active, l)
	for _, ref := range m.menuRefs[l] {
		delete(m.menus, ref.messageID)
	}
	delete(m.menuRefs, l)
	l.SetNotifier(nil)
}

// Listeners returns the registered listeners in registration order
func (m *Manager) Listeners() []*listener.Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*listener.Listener(nil), m.listeners...)
}

// Listener finds a registered listener by name
func (m *Manager) Listener(name string) (*listener.Listener, bool) {
	for _, l := range m.Listeners() {
		if l.Name() == name {
			return l, true
		}
	}
	return nil, false
}

// ActiveListeners returns a snapshot of the listeners events are dispatched
// to. The manager's own reaction listener is always first.
func (m *Manager) ActiveListeners() []*listener.Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*listener.Listener{m.self}
	for _, l := range m.listeners {
		if _, ok := m.active[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// IsListening reports whether c is in the active set
func (m *Manager) IsListening(c listener.Controllable) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[c]
	return ok
}

// StopAll stops every registered listener
func (m *Manager) StopAll(ctx context.Context) {
	for _, l := range m.Listeners() {
		if _, err := l.Stop(ctx); err != nil {
			m.log.Warn("stopping %s: %v", l.Name(), err)
		}
	}
}

// Clear stops and forgets every listener and rendered message
func (m *Manager) Clear(ctx context.Context) {
	m.StopAll(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listeners {
		l.SetNotifier(nil)
	}
	m.listeners = nil
	m.channelHandles = map[*listener.ChannelHandle]struct{}{}
	m.active = map[listener.Controllable]struct{}{}
	m.menus = map[string]listener.Controllable{}
	m.menuRefs = map[listener.Controllable][]menuRef{}
	m.controlBoards = map[string]struct{}{}
	if m.versionTimer != nil {
		m.versionTimer.Stop()
	}
	m.versionChoice = ""
}

// StartListener marks c active and repaints its menus
func (m *Manager) StartListener(ctx context.Context, c listener.Controllable) {
	m.mu.Lock()
	m.active[c] = struct{}{}
	m.mu.Unlock()
	if c.Active() {
		m.paint(ctx, c, StatusRunning)
	} else {
		m.paint(ctx, c, StatusStopped)
	}
}

// CloseListener removes c from the active set and repaints its menus
func (m *Manager) CloseListener(ctx context.Context, c listener.Controllable) {
	m.mu.Lock()
	delete(m.active, c)
	m.mu.Unlock()
	if c.Active() {
		m.paint(ctx, c, StatusSuspended)
	} else {
		m.paint(ctx, c, StatusStopped)
	}
}

// UpdateListener repaints c from its current state
func (m *Manager) UpdateListener(ctx context.Context, c listener.Controllable) {
	m.mu.Lock()
	_, listening := m.active[c]
	if h, ok := c.(*listener.ChannelHandle); ok {
		_, listening = m.channelHandles[h]
	}
	m.mu.Unlock()

	switch {
	case listening && c.Active():
		m.paint(ctx, c, StatusRunning)
	case !c.Active():
		m.paint(ctx, c, StatusStopped)
	default:
		m.paint(ctx, c, StatusSuspended)
	}
}

// UpdateListeners repaints every listener and channel menu
func (m *Manager) UpdateListeners(ctx context.Context) {
	m.mu.Lock()
	all := make([]listener.Controllable, 0, len(m.listeners)+len(m.channelHandles))
	for _, l := range m.listeners {
		all = append(all, l)
	}
	for h := range m.channelHandles {
		all = append(all, h)
	}
	m.mu.Unlock()

	for _, c := range all {
		m.UpdateListener(ctx, c)
	}
}

func (m *Manager) registerMenu(c listener.Controllable, channelID, messageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menus[messageID] = c
	m.menuRefs[c] = append(m.menuRefs[c], menuRef{channelID: channelID, messageID: messageID})
	if h, ok := c.(*listener.ChannelHandle); ok {
		m.channelHandles[h] = struct{}{}
	}
}

func (m *Manager) refsOf(c listener.Controllable) []menuRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]menuRef(nil), m.menuRefs[c]...)
}

func (m *Manager) prune(c listener.Controllable, stale menuRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := m.menuRefs[c]
	for i, ref := range refs {
		if ref == stale {
			m.menuRefs[c] = append(refs[:i:i], refs[i+1:]...)
			break
		}
	}
	delete(m.menus, stale.messageID)
}

func (m *Manager) menuFor(messageID string) (listener.Controllable, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.menus[messageID]
	return c, ok
}

// MenuMessages returns the messages rendered for c
func (m *Manager) MenuMessages(c listener.Controllable) []string {
	var ids []string
	for _, ref := range m.refsOf(c) {
		ids = append(ids, ref.messageID)
	}
	return ids
}

// paint shows status on every menu of c, pruning menus that no longer exist.
func (m *Manager) paint(ctx context.Context, c listener.Controllable, status string) {
	for _, ref := range m.refsOf(c) {
		if _, err := m.session.ChannelMessage(ref.channelID, ref.messageID); err != nil {
			m.log.Debug("menu %s of %s is gone: %v", ref.messageID, c.Name(), err)
			m.prune(c, ref)
			continue
		}
		for _, e := range statusEmojis {
			if e == status {
				continue
			}
			if err := m.session.MessageReactionsRemoveEmoji(ref.channelID, ref.messageID, e); err != nil {
				m.log.Debug("clearing %s on %s: %v", e, ref.messageID, err)
			}
		}
		discord.SafeReactionAdd(m.session, m.log, ref.channelID, ref.messageID, status)

		if simple, ok := c.SimpleMode().Get(); ok {
			if simple {
				discord.SafeReactionAdd(m.session, m.log, ref.channelID, ref.messageID, SimpleModeIndicator)
			} else if err := m.session.MessageReactionsRemoveEmoji(ref.channelID, ref.messageID, SimpleModeIndicator); err != nil {
				m.log.Debug("clearing simple mode on %s: %v", ref.messageID, err)
			}
		}
	}
}
