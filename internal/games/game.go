package games

import (
	"context"

	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/audio"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/history"
	"github.com/fadedpez/gamemaster/pkg/listener"
	"github.com/fadedpez/gamemaster/pkg/manager"
	"github.com/fadedpez/gamemaster/pkg/menu"
	"github.com/samber/mo"
)

// LogChannelKey is forbidden to built-in listeners unless their description
// lists forbidden channels itself
const LogChannelKey = "LOG"

// Env is what a factory may wire a listener to. Fields other than Session,
// GuildID, Catalog and Directory may be nil.
type Env struct {
	Session   discord.SessionHandler
	GuildID   string
	Catalog   *catalog.Catalog
	Directory *catalog.Directory
	Manager   *manager.Manager
	Roles     *menu.RoleMenu
	Jingles   *menu.JinglePalette
	History   *history.Recorder
	Logger    *logging.Logger
	Player    audio.Player
	SongsDir  string

	Versions      func() []string
	Teams         func() int
	SetTeams      func(ctx context.Context, n int) error
	ChangeVersion func(ctx context.Context, versions []string, channelID string) error
	Leave         func(ctx context.Context) error
}

// CurrentVersions returns the session versions
func (e *Env) CurrentVersions() []string {
	if e.Versions == nil {
		return nil
	}
	return e.Versions()
}

// Factory builds one listener from its catalog description
type Factory func(env *Env, spec catalog.ListenerSpec) (*listener.Listener, error)

func optionOf(list *[]string) mo.Option[[]string] {
	if list == nil {
		return mo.None[[]string]()
	}
	return mo.Some(append([]string{}, (*list)...))
}

// FilterConfig turns the channel and role lists of a catalog entry into a filter
func FilterConfig(spec catalog.ListenerSpec) listener.FilterConfig {
	cfg := listener.FilterConfig{
		AllowedChannels:   optionOf(spec.AllowedChannels),
		ForbiddenChannels: optionOf(spec.ForbiddenChannels),
		AllowedRoles:      optionOf(spec.AllowedRoles),
		ForbiddenRoles:    optionOf(spec.ForbiddenRoles),
	}
	if spec.ForbiddenChannels == nil {
		cfg.ForbiddenChannels = mo.Some([]string{LogChannelKey})
	}
	return cfg
}

// SimpleMode returns the simple mode of a catalog entry
func SimpleMode(spec catalog.ListenerSpec) mo.Option[bool] {
	if spec.SimpleMode == nil {
		return mo.None[bool]()
	}
	return mo.Some(*spec.SimpleMode)
}

// MaxPlays returns the per-channel play cap of a catalog entry
func MaxPlays(spec catalog.ListenerSpec) mo.Option[int] {
	if spec.MaxPlays == nil {
		return mo.None[int]()
	}
	return mo.Some(*spec.MaxPlays)
}

// CommonOptions are the options every built-in listener gets from its
// description: lifecycle flags, message bag, logger and filter.
func CommonOptions(env *Env, spec catalog.ListenerSpec, bag string) []listener.Option {
	opts := []listener.Option{
		listener.WithDescription(spec.Description),
		listener.WithAutoStart(spec.AutoStart),
		listener.WithMessages(env.Catalog.Messages(bag, env.CurrentVersions())),
	}
	if env.Logger != nil {
		opts = append(opts, listener.WithLogger(env.Logger))
	}
	if spec.Hidden {
		opts = append(opts, listener.WithHidden())
	}
	opts = append(opts,
		listener.WithFilter(FilterConfig(spec), env.Directory),
		listener.WithMemberLookup(env.Session.GuildMember),
	)
	return opts
}

// ChannelName resolves a channel id to a display name through the directory
func (e *Env) ChannelName(channelID string) string {
	if key, ok := e.Directory.ChannelKey(channelID); ok {
		if spec, ok := e.Catalog.Channel(key); ok {
			return spec.Name
		}
		return key
	}
	return channelID
}
