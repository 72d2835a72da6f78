// Package listener implements the lifecycle of the units that receive
// platform events: plain utilities, filtered listeners, mini-games and
// channel-scoped mini-games. A Listener is composed from optional policies
// rather than specialised by type.
package listener

import (
	"context"
	"sync"

	"github.com/fadedpez/gamemaster/internal/guard"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/samber/mo"
)

// HandlerFunc handles one event for a listener
type HandlerFunc func(ctx context.Context, ev *Event) error

// Notifier is told about lifecycle changes so rendered status can follow.
type Notifier interface {
	StartListener(ctx context.Context, c Controllable)
	CloseListener(ctx context.Context, c Controllable)
	UpdateListeners(ctx context.Context)
}

// Controllable is what the control board drives: a whole listener or one
// channel of a channel-scoped game.
type Controllable interface {
	Name() string
	Description() string
	Active() bool
	ShowInManager() bool
	IsGame() bool
	HasChannelScope() bool
	SimpleMode() mo.Option[bool]
	SetSimpleMode(simple bool)
	Start(ctx context.Context) (bool, error)
	Stop(ctx context.Context) (bool, error)
	HelpedVictory(ctx context.Context) error
}

// Resettable is implemented by controllables whose play counter can be rewound
type Resettable interface {
	Reset(ctx context.Context) error
}

// Hooks are the overridable steps of the lifecycle. Nil hooks use the defaults.
type Hooks struct {
	// Init runs before activation; returning false aborts the start.
	Init func(ctx context.Context) (bool, error)
	// Close runs before deactivation; returning false aborts the stop.
	Close func(ctx context.Context) (bool, error)
	// AnalyzeMessage receives created messages that passed the filter.
	AnalyzeMessage func(ctx context.Context, msg *Message) error

	Victory       func(ctx context.Context) error
	HelpedVictory func(ctx context.Context) error

	InitChannel          func(ctx context.Context, status *ChannelGameStatus) (bool, error)
	ChannelVictory       func(ctx context.Context, status *ChannelGameStatus) error
	ChannelHelpedVictory func(ctx context.Context, status *ChannelGameStatus) error

	// Reload runs after the message bag is reloaded.
	Reload func(versions []string, clear bool)
}

// Listener is a unit with a start/stop lifecycle receiving platform events.
type Listener struct {
	name          string
	description   string
	autoStart     bool
	showInManager bool

	mu       sync.RWMutex
	active   bool
	notifier Notifier
	observer VictoryObserver

	startGuard guard.Guard

	hooks    Hooks
	handlers map[EventType]HandlerFunc
	messages *catalog.Messages
	log      *logging.Logger

	filter  *Filter
	members MemberLookup
	game    *gamePolicy
	scope   *channelScope
}

// Option configures a Listener
type Option func(*Listener)

// WithDescription sets the text shown on the control board
func WithDescription(description string) Option {
	return func(l *Listener) { l.description = description }
}

// WithAutoStart starts the listener when the session becomes ready
func WithAutoStart(autoStart bool) Option {
	return func(l *Listener) { l.autoStart = autoStart }
}

// WithHidden keeps the listener off the control board
func WithHidden() Option {
	return func(l *Listener) { l.showInManager = false }
}

// WithHooks sets the lifecycle hooks
func WithHooks(h Hooks) Option {
	return func(l *Listener) { l.hooks = h }
}

// WithHandler registers fn for events of type t
func WithHandler(t EventType, fn HandlerFunc) Option {
	return func(l *Listener) { l.handlers[t] = fn }
}

// WithMessages attaches the listener's message bag
func WithMessages(m *catalog.Messages) Option {
	return func(l *Listener) { l.messages = m }
}

// WithLogger sets the logger
func WithLogger(log *logging.Logger) Option {
	return func(l *Listener) { l.log = log.With(l.name) }
}

// New creates a listener named name
func New(name string, opts ...Option) *Listener {
	l := &Listener{
		name:          name,
		showInManager: true,
		handlers:      map[EventType]HandlerFunc{},
		log:           logging.Default.With(name),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.filter != nil {
		l.filter.members = l.members
	}
	if l.scope != nil && l.game == nil {
		l.game = &gamePolicy{simpleMode: mo.None[bool]()}
	}
	return l
}

// Name returns the listener name
func (l *Listener) Name() string { return l.name }

// Description returns the listener description
func (l *Listener) Description() string { return l.description }

// AutoStart reports whether the listener starts when the session is ready
func (l *Listener) AutoStart() bool { return l.autoStart }

// ShowInManager reports whether the listener appears on the control board
func (l *Listener) ShowInManager() bool { return l.showInManager }

// Messages returns the listener's message bag
func (l *Listener) Messages() *catalog.Messages { return l.messages }

// Logger returns the listener's logger
func (l *Listener) Logger() *logging.Logger { return l.log }

// Active reports whether the listener is running
func (l *Listener) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

func (l *Listener) setActive(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = active
}

// SetNotifier attaches the manager told about lifecycle changes
func (l *Listener) SetNotifier(n Notifier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifier = n
}

func (l *Listener) currentNotifier() Notifier {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.notifier
}

// Start activates the listener. It returns false without error when a start
// is already in progress, when the listener is already active, or when the
// init hook declines.
func (l *Listener) Start(ctx context.Context) (bool, error) {
	if !l.startGuard.TryAcquire() {
		l.log.Debug("start already in progress")
		return false, nil
	}
	defer l.startGuard.Release()

	if l.Active() {
		return false, nil
	}
	ok, err := l.runInit(ctx)
	if err != nil || !ok {
		return false, err
	}
	l.setActive(true)
	l.log.Info("started")
	if n := l.currentNotifier(); n != nil {
		n.StartListener(ctx, l)
	}
	return true, nil
}

func (l *Listener) runInit(ctx context.Context) (bool, error) {
	if l.hooks.Init != nil {
		return l.hooks.Init(ctx)
	}
	if l.scope != nil {
		l.resetAllowedChannels()
	}
	return true, nil
}

// Stop deactivates the listener unless the close hook declines. A
// channel-scoped game also deactivates every channel.
func (l *Listener) Stop(ctx context.Context) (bool, error) {
	if l.hooks.Close != nil {
		ok, err := l.hooks.Close(ctx)
		if err != nil || !ok {
			return false, err
		}
	}
	if l.scope != nil {
		for _, s := range l.scope.statuses.all() {
			s.setActive(false)
		}
	}
	l.setActive(false)
	l.log.Info("stopped")
	if n := l.currentNotifier(); n != nil {
		n.CloseListener(ctx, l)
	}
	return true, nil
}

// Reload reloads the message bag without touching the lifecycle
func (l *Listener) Reload(versions []string, clear bool) {
	if l.messages != nil {
		l.messages.Reload(versions, clear)
	}
	if l.hooks.Reload != nil {
		l.hooks.Reload(versions, clear)
	}
}

// Handle dispatches ev. Created messages go through the filter to the
// AnalyzeMessage hook; other events go to the registered handler, and event
// types without a handler are ignored.
func (l *Listener) Handle(ctx context.Context, ev *Event) error {
	switch ev.Type {
	case EventReady:
		if l.autoStart && !l.Active() {
			if _, err := l.Start(ctx); err != nil {
				return err
			}
		}
	case EventMessageCreate:
		return l.handleMessage(ctx, ev)
	}
	if h, ok := l.handlers[ev.Type]; ok {
		return h(ctx, ev)
	}
	return nil
}

func (l *Listener) handleMessage(ctx context.Context, ev *Event) error {
	mc := ev.Message()
	if mc == nil || mc.Message == nil {
		return nil
	}
	msg := l.FilterMessage(&Message{Message: mc.Message, Member: ev.Member()})
	if msg == nil {
		return nil
	}
	if l.hooks.AnalyzeMessage != nil {
		return l.hooks.AnalyzeMessage(ctx, msg)
	}
	if h, ok := l.handlers[EventMessageCreate]; ok {
		return h(ctx, ev)
	}
	return nil
}
