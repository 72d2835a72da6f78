package games

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fadedpez/gamemaster/internal/discord"
	base "github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/listener"
	"github.com/fadedpez/gamemaster/pkg/manager"
)

// AdminPrefix starts every admin tools command
const AdminPrefix = ">"

// Admin tools option defaults
const (
	DefaultAdminLogLevel = "warn"
	kickReason           = "kicked by an administrator"
)

var adminTexts = map[string]string{
	"CONNECTED":       "Connected to the gateway",
	"DISCONNECTED":    "Disconnected from the gateway",
	"READY":           "Ready, %d listeners loaded",
	"LOG_LEVEL":       "Log channel level: %s",
	"LOG_LEVEL_SET":   "Log channel level set to %s",
	"NO_LOG_CHANNEL":  "No log channel is mirrored",
	"INFO":            "**%s**: %d channels, %d roles, versions %s",
	"CHANNELS":        "**Channels**\n%s",
	"ROLES":           "**Roles**\n%s",
	"RELOADED":        "Reloaded %s",
	"VERSION_CHANGED": "Versions changed to %s",
	"KICKED":          "Kicked %d members",
	"NOTHING_TO_KICK": "Nobody to kick",
	"LEAVING":         "Leaving the guild",
	"VERBOSE":         "Connection notices on",
	"QUIET":           "Connection notices off",
	"UNAVAILABLE":     "`%s` is not available",
}

// adminTools runs the > commands of the developers and mirrors the session
// logs into the log channel while active.
type adminTools struct {
	commander
	logChannelKey    string
	eventsChannelKey string
	logLevel         logging.Level

	mu      sync.Mutex
	verbose bool
	sink    *discord.LogChannel
	mirror  *logging.Mirror
}

func newAdminTools(env *base.Env, spec catalog.ListenerSpec) (*listener.Listener, error) {
	if spec.AllowedRoles == nil {
		spec.AllowedRoles = &[]string{"DEV"}
	}
	t := &adminTools{
		commander:        newCommander(env, spec, AdminPrefix),
		logChannelKey:    optionOr(spec.Options, "log_channel", base.LogChannelKey),
		eventsChannelKey: optionOr(spec.Options, "events_channel", base.LogChannelKey),
		logLevel:         logging.ParseLevel(optionOr(spec.Options, "log_level", DefaultAdminLogLevel)),
		verbose:          optionOr(spec.Options, "verbose", "true") != "false",
	}
	t.commands = t.commandTable()

	opts := base.CommonOptions(env, spec, "admin")
	opts = append(opts,
		listener.WithHooks(listener.Hooks{
			Init:           t.init,
			Close:          t.close,
			AnalyzeMessage: t.analyze,
		}),
		listener.WithHandler(listener.EventReady, t.onReady),
		listener.WithHandler(listener.EventConnect, t.notice("CONNECTED")),
		listener.WithHandler(listener.EventDisconnect, t.notice("DISCONNECTED")),
	)
	t.l = listener.New(spec.Name, opts...)
	t.l.Messages().WithFallback(withCommandTexts(adminTexts))
	t.log = t.l.Logger()
	return t.l, nil
}

func optionOr(options map[string]string, key, def string) string {
	if v, ok := options[key]; ok && v != "" {
		return v
	}
	return def
}

func (t *adminTools) commandTable() []toolCommand {
	return []toolCommand{
		{[]string{"help"}, "help", "List the commands", t.cmdHelp},
		{[]string{"log_level", "change_logging_level"}, "log_level [debug|info|warn|error|critical]", "Show or set the level of the log channel", t.cmdLogLevel},
		{[]string{"info"}, "info", "Describe the guild", t.cmdInfo},
		{[]string{"channels"}, "channels", "List the guild channels", t.cmdChannels},
		{[]string{"roles"}, "roles", "List the guild roles", t.cmdRoles},
		{[]string{"listeners"}, "listeners", "Show every listener menu", t.cmdListeners},
		{[]string{"control_panel", "control"}, "control_panel", "Show the control panel on the board", t.cmdControlPanel},
		{[]string{"reload", "reload_listener_messages"}, "reload <listener|all> [version ...] [--update]", "Reload the messages of listeners", t.cmdReload},
		{[]string{"change_version", "version"}, "change_version <version> ... [--update]", "Change the versions of the session", t.cmdChangeVersion},
		{[]string{"kick", "kick_member"}, "kick <@member|@role> ...", "Kick members from the guild", t.cmdKick},
		{[]string{"kick_bot", "leave"}, "kick_bot", "Make the bot leave the guild", t.cmdLeave},
		{[]string{"verbose"}, "verbose", "Post connection notices", t.cmdVerbose(true)},
		{[]string{"quiet"}, "quiet", "Stop posting connection notices", t.cmdVerbose(false)},
	}
}

func (t *adminTools) init(_ context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sink != nil || t.env.Logger == nil {
		return true, nil
	}
	channelID, ok := t.env.Directory.ChannelID(t.logChannelKey)
	if !ok {
		t.log.Warn("log channel %s is not resolved, logs stay local", t.logChannelKey)
		return true, nil
	}
	t.sink = discord.NewLogChannel(t.env.Session, channelID, discord.DefaultLogQueue, t.env.Logger)
	t.mirror = t.env.Logger.Mirror(t.sink, t.logLevel)
	return true, nil
}

func (t *adminTools) close(_ context.Context) (bool, error) {
	t.mu.Lock()
	sink, mirror := t.sink, t.mirror
	t.sink, t.mirror = nil, nil
	t.mu.Unlock()

	if mirror != nil {
		mirror.Close()
	}
	if sink != nil {
		sink.Close()
		if n := sink.Dropped(); n > 0 {
			t.log.Warn("%d log lines were dropped", n)
		}
	}
	return true, nil
}

func (t *adminTools) isVerbose() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.verbose
}

func (t *adminTools) post(key string, args ...interface{}) {
	if !t.isVerbose() {
		return
	}
	channelID, ok := t.env.Directory.ChannelID(t.eventsChannelKey)
	if !ok {
		return
	}
	t.send(channelID, t.text(key, args...))
}

func (t *adminTools) notice(key string) listener.HandlerFunc {
	return func(_ context.Context, _ *listener.Event) error {
		if t.l.Active() {
			t.post(key)
		}
		return nil
	}
}

func (t *adminTools) onReady(_ context.Context, _ *listener.Event) error {
	if !t.l.Active() {
		return nil
	}
	n := 0
	if t.env.Manager != nil {
		n = len(t.env.Manager.Listeners())
	}
	t.post("READY", n)
	return nil
}

func (t *adminTools) cmdLogLevel(_ context.Context, msg *listener.Message, args []string) error {
	t.mu.Lock()
	mirror := t.mirror
	t.mu.Unlock()
	if mirror == nil {
		t.reply(msg, "NO_LOG_CHANNEL")
		return nil
	}
	if len(args) == 0 {
		t.reply(msg, "LOG_LEVEL", mirror.Level())
		return nil
	}
	level, ok := parseLevelName(args[0])
	if !ok {
		return errUsage
	}
	mirror.SetLevel(level)
	t.reply(msg, "LOG_LEVEL_SET", level)
	return nil
}

// parseLevelName only accepts the names ParseLevel knows, unlike ParseLevel
// which maps unknown names to INFO
func parseLevelName(name string) (logging.Level, bool) {
	switch strings.ToLower(name) {
	case "debug", "info", "warn", "warning", "error", "critical":
		return logging.ParseLevel(name), true
	}
	return 0, false
}

func (t *adminTools) cmdInfo(_ context.Context, msg *listener.Message, _ []string) error {
	g, err := t.env.Session.Guild(t.env.GuildID)
	if err != nil {
		return err
	}
	channels, err := t.env.Session.GuildChannels(t.env.GuildID)
	if err != nil {
		return err
	}
	roles, err := t.env.Session.GuildRoles(t.env.GuildID)
	if err != nil {
		return err
	}
	t.reply(msg, "INFO", g.Name, len(channels), len(roles), strings.Join(t.env.CurrentVersions(), ", "))
	return nil
}

func (t *adminTools) cmdChannels(_ context.Context, msg *listener.Message, _ []string) error {
	channels, err := t.env.Session.GuildChannels(t.env.GuildID)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, ch := range channels {
		key, _ := t.env.Directory.ChannelKey(ch.ID)
		fmt.Fprintf(&b, "- `%s` %s %s\n", ch.ID, ch.Name, keyLabel(key))
	}
	t.reply(msg, "CHANNELS", b.String())
	return nil
}

func (t *adminTools) cmdRoles(_ context.Context, msg *listener.Message, _ []string) error {
	roles, err := t.env.Session.GuildRoles(t.env.GuildID)
	if err != nil {
		return err
	}
	keys := map[string]string{}
	for key, id := range t.env.Directory.Roles() {
		keys[id] = key
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })

	var b strings.Builder
	for _, r := range roles {
		fmt.Fprintf(&b, "- `%s` %s %s\n", r.ID, r.Name, keyLabel(keys[r.ID]))
	}
	t.reply(msg, "ROLES", b.String())
	return nil
}

func keyLabel(key string) string {
	if key == "" {
		return ""
	}
	return "[" + key + "]"
}

func (t *adminTools) cmdListeners(ctx context.Context, msg *listener.Message, _ []string) error {
	m, err := t.manager()
	if err != nil {
		return err
	}
	m.ShowListeners(ctx, msg.ChannelID, manager.KindAny)
	return nil
}

func (t *adminTools) cmdControlPanel(ctx context.Context, _ *listener.Message, _ []string) error {
	m, err := t.manager()
	if err != nil {
		return err
	}
	return m.ShowControlPanel(ctx, "")
}

// versionArgs splits the versions from the --update flag. Without versions
// the current ones are kept.
func (t *adminTools) versionArgs(args []string) ([]string, bool, error) {
	var versions []string
	update := false
	for _, a := range args {
		if a == "--update" {
			update = true
			continue
		}
		if !t.env.Catalog.HasVersion(a) {
			return nil, false, errUsage
		}
		versions = append(versions, a)
	}
	if len(versions) == 0 {
		versions = t.env.CurrentVersions()
	}
	return versions, update, nil
}

func (t *adminTools) cmdReload(_ context.Context, msg *listener.Message, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	versions, update, err := t.versionArgs(args[1:])
	if err != nil {
		return err
	}
	if strings.EqualFold(args[0], "all") {
		m, err := t.manager()
		if err != nil {
			return err
		}
		m.Reload(versions, update)
		for _, l := range m.Listeners() {
			l.Reload(versions, update)
		}
		t.reply(msg, "RELOADED", "all")
		return nil
	}
	l, err := t.find(args[0])
	if err != nil {
		return err
	}
	l.Reload(versions, update)
	t.reply(msg, "RELOADED", l.Name())
	return nil
}

func (t *adminTools) cmdChangeVersion(ctx context.Context, msg *listener.Message, args []string) error {
	if t.env.ChangeVersion == nil {
		t.reply(msg, "UNAVAILABLE", "change_version")
		return nil
	}
	if len(args) == 0 {
		return errUsage
	}
	versions, _, err := t.versionArgs(args)
	if err != nil {
		return err
	}
	if err := t.env.ChangeVersion(ctx, versions, msg.ChannelID); err != nil {
		return err
	}
	t.reply(msg, "VERSION_CHANGED", strings.Join(versions, ", "))
	return nil
}

// mention returns the id and whether ref mentions a role
func mention(ref string) (string, bool, bool) {
	if !strings.HasPrefix(ref, "<@") || !strings.HasSuffix(ref, ">") {
		return "", false, false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(ref, "<@"), ">")
	switch {
	case strings.HasPrefix(id, "&"):
		return id[1:], true, id != "&"
	case strings.HasPrefix(id, "!"):
		id = id[1:]
	}
	return id, false, id != ""
}

func (t *adminTools) cmdKick(_ context.Context, msg *listener.Message, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	targets := map[string]struct{}{}
	for _, a := range args {
		id, isRole, ok := mention(a)
		if !ok {
			return errUsage
		}
		if !isRole {
			targets[id] = struct{}{}
			continue
		}
		members, err := discord.MembersWithRole(t.env.Session, t.env.GuildID, id)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.User != nil {
				targets[m.User.ID] = struct{}{}
			}
		}
	}
	delete(targets, t.env.Session.BotUserID())
	delete(targets, msg.Author.ID)
	if len(targets) == 0 {
		t.reply(msg, "NOTHING_TO_KICK")
		return nil
	}

	kicked := 0
	for id := range targets {
		if err := t.env.Session.GuildMemberDeleteWithReason(t.env.GuildID, id, kickReason); err != nil {
			t.log.Warn("kicking %s: %v", id, err)
			continue
		}
		t.log.Info("kicked %s", id)
		kicked++
	}
	t.reply(msg, "KICKED", kicked)
	return nil
}

func (t *adminTools) cmdLeave(ctx context.Context, msg *listener.Message, _ []string) error {
	if t.env.Leave == nil {
		t.reply(msg, "UNAVAILABLE", "kick_bot")
		return nil
	}
	t.reply(msg, "LEAVING")
	return t.env.Leave(ctx)
}

func (t *adminTools) cmdVerbose(on bool) func(context.Context, *listener.Message, []string) error {
	return func(_ context.Context, msg *listener.Message, _ []string) error {
		t.mu.Lock()
		t.verbose = on
		t.mu.Unlock()
		if on {
			t.reply(msg, "VERBOSE")
		} else {
			t.reply(msg, "QUIET")
		}
		return nil
	}
}
