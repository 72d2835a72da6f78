package games

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	base "github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/listener"
	"github.com/fadedpez/gamemaster/pkg/manager"
	"github.com/fadedpez/gamemaster/pkg/menu"
	"github.com/samber/mo"
)

// DefaultPrefix starts every game tools command
const DefaultPrefix = "!"

// DefaultStatsLimit is how many victories !stats lists
const DefaultStatsLimit = 10

var toolsTexts = map[string]string{
	"STARTED":          "%s started",
	"NOT_STARTED":      "%s did not start",
	"STOPPED":          "%s stopped",
	"NOT_STOPPED":      "%s did not stop",
	"VICTORY":          "Victory forced for %s",
	"CHANNEL_STARTED":  "%s started in %s",
	"CHANNEL_STOPPED":  "%s stopped in %s",
	"CHANNEL_RESET":    "%s reset in %s",
	"CHANNEL_VICTORY":  "Victory forced for %s in %s",
	"ROLEMENU_ERROR":   "Error with `rolemenu`: every role must match an emoji",
	"JINGLES_ERROR":    "Error with `jingles`: every emoji must match a file",
	"JINGLES_DISABLED": "Jingles are not available",
	"HISTORY_DISABLED": "Victory history is not available",
	"NO_VICTORY":       "No victory recorded for %s",
	"STATS":            "**%s**: last %d victories\n%s",
	"TEAMS":            "Number of teams: %d",
	"TEAMS_SET":        "Number of teams set to %d",
}

// gameTools runs the ! commands of the game masters
type gameTools struct {
	commander
}

func newGameTools(env *base.Env, spec catalog.ListenerSpec) (*listener.Listener, error) {
	if spec.AllowedRoles == nil {
		spec.AllowedRoles = &[]string{"MASTER", "DEV"}
	}
	t := &gameTools{commander: newCommander(env, spec, DefaultPrefix)}
	t.commands = t.commandTable()

	opts := base.CommonOptions(env, spec, "tools")
	opts = append(opts, listener.WithHooks(listener.Hooks{AnalyzeMessage: t.analyze}))
	t.l = listener.New(spec.Name, opts...)
	t.l.Messages().WithFallback(withCommandTexts(toolsTexts))
	t.log = t.l.Logger()
	return t.l, nil
}

func (t *gameTools) commandTable() []toolCommand {
	return []toolCommand{
		{[]string{"help", "aide"}, "help", "List the commands", t.cmdHelp},
		{[]string{"list", "listeners", "minigames"}, "list [games|utils]", "Show the listener menus", t.cmdList},
		{[]string{"start"}, "start <listener>", "Start a listener", t.cmdStart},
		{[]string{"stop"}, "stop <listener>", "Stop a listener", t.cmdStop},
		{[]string{"victory", "force_victory"}, "victory <listener>", "Force the victory of a game", t.cmdVictory},
		{[]string{"channel", "ch"}, "channel <listener> start|stop|reset|victory [#channel]", "Drive a game in one channel", t.cmdChannel},
		{[]string{"rolemenu"}, "rolemenu <@role> <emoji> ... [--no-change] [--no-update] [--no-removal] [--max-reactions N] [--max-users N]", "Turn the message into a role menu", t.cmdRoleMenu},
		{[]string{"jingles"}, "jingles <emoji> <file> ...", "Turn the message into a jingle palette", t.cmdJingles},
		{[]string{"stats"}, "stats <listener> [limit]", "Show the last victories of a game", t.cmdStats},
		{[]string{"teams"}, "teams [1-3]", "Show or set the number of teams", t.cmdTeams},
	}
}

func (t *gameTools) cmdList(ctx context.Context, msg *listener.Message, args []string) error {
	m, err := t.manager()
	if err != nil {
		return err
	}
	kind := manager.KindAny
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "games":
			kind = manager.KindGame
		case "utils":
			kind = manager.KindUtility
		default:
			return errUsage
		}
	}
	m.ShowListeners(ctx, msg.ChannelID, kind)
	return nil
}

func (t *gameTools) cmdStart(ctx context.Context, msg *listener.Message, args []string) error {
	l, err := t.find(strings.Join(args, " "))
	if err != nil {
		return err
	}
	ok, err := l.Start(ctx)
	if err != nil {
		return err
	}
	if !ok {
		t.reply(msg, "NOT_STARTED", l.Name())
		return nil
	}
	t.reply(msg, "STARTED", l.Name())
	return nil
}

func (t *gameTools) cmdStop(ctx context.Context, msg *listener.Message, args []string) error {
	l, err := t.find(strings.Join(args, " "))
	if err != nil {
		return err
	}
	ok, err := l.Stop(ctx)
	if err != nil {
		return err
	}
	if !ok {
		t.reply(msg, "NOT_STOPPED", l.Name())
		return nil
	}
	t.reply(msg, "STOPPED", l.Name())
	return nil
}

func (t *gameTools) cmdVictory(ctx context.Context, msg *listener.Message, args []string) error {
	l, err := t.find(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if !l.IsGame() {
		return types.NewGameError(types.ErrInvalidArgument, l.Name()+" is not a game")
	}
	if err := l.HelpedVictory(ctx); err != nil {
		return err
	}
	t.reply(msg, "VICTORY", l.Name())
	return nil
}

// channelMention returns the id of a <#id> mention
func channelMention(arg string) (string, bool) {
	if strings.HasPrefix(arg, "<#") && strings.HasSuffix(arg, ">") {
		return arg[2 : len(arg)-1], true
	}
	return "", false
}

// roleMention returns the id of a <@&id> mention
func roleMention(arg string) (string, bool) {
	if strings.HasPrefix(arg, "<@&") && strings.HasSuffix(arg, ">") {
		return arg[3 : len(arg)-1], true
	}
	return "", false
}

func (t *gameTools) cmdChannel(ctx context.Context, msg *listener.Message, args []string) error {
	channelID := msg.ChannelID
	if n := len(args); n > 0 {
		if id, ok := channelMention(args[n-1]); ok {
			channelID, args = id, args[:n-1]
		}
	}
	if len(args) < 2 {
		return errUsage
	}
	action := strings.ToLower(args[len(args)-1])
	l, err := t.find(strings.Join(args[:len(args)-1], " "))
	if err != nil {
		return err
	}
	if !l.HasChannelScope() {
		return types.NewGameError(types.ErrInvalidArgument, l.Name()+" is not played per channel")
	}
	where := t.env.ChannelName(channelID)

	switch action {
	case "start":
		ok, err := l.StartChannel(ctx, channelID)
		if err != nil {
			return err
		}
		if !ok {
			t.reply(msg, "NOT_STARTED", l.Name())
			return nil
		}
		t.reply(msg, "CHANNEL_STARTED", l.Name(), where)
	case "stop":
		l.StopChannel(ctx, channelID)
		t.reply(msg, "CHANNEL_STOPPED", l.Name(), where)
	case "reset":
		l.ResetChannelStats(channelID)
		if t.env.Manager != nil {
			t.env.Manager.UpdateListeners(ctx)
		}
		t.reply(msg, "CHANNEL_RESET", l.Name(), where)
	case "victory":
		if err := l.ChannelHelpedVictory(ctx, channelID); err != nil {
			return err
		}
		t.reply(msg, "CHANNEL_VICTORY", l.Name(), where)
	default:
		return errUsage
	}
	return nil
}

// takeFlag removes flag from args and reports whether it was present
func takeFlag(args []string, flag string) ([]string, bool) {
	for i, a := range args {
		if a == flag {
			return append(args[:i:i], args[i+1:]...), true
		}
	}
	return args, false
}

// takeNumber removes flag and its value from args
func takeNumber(args []string, flag string) ([]string, mo.Option[int], error) {
	for i, a := range args {
		if a != flag {
			continue
		}
		if i+1 >= len(args) {
			return args, mo.None[int](), errUsage
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil || n < 0 {
			return args, mo.None[int](), errUsage
		}
		return append(args[:i:i], args[i+2:]...), mo.Some(n), nil
	}
	return args, mo.None[int](), nil
}

// isRoleRef reports whether arg names a role, by mention or catalog key
func (t *gameTools) isRoleRef(arg string) bool {
	if _, ok := roleMention(arg); ok {
		return true
	}
	_, ok := t.env.Catalog.Role(arg)
	return ok
}

func (t *gameTools) cmdRoleMenu(ctx context.Context, msg *listener.Message, args []string) error {
	if t.env.Roles == nil {
		return types.NewGameError(types.ErrInvalidConfiguration, "role menus are not available")
	}
	opts := menu.DefaultRoleOptions()
	opts.IgnoredRoles = []string{"MASTER"}
	var flag bool
	if args, flag = takeFlag(args, "--no-change"); flag {
		opts.AllowOptionChange = false
	}
	if args, flag = takeFlag(args, "--no-update"); flag {
		opts.UpdateReactions = false
	}
	if args, flag = takeFlag(args, "--no-removal"); flag {
		opts.RemoveRoleOnReactionRemoval = false
	}
	var err error
	if args, opts.MaxReactionsPerUser, err = takeNumber(args, "--max-reactions"); err != nil {
		return err
	}
	if args, opts.MaxUsersWithRole, err = takeNumber(args, "--max-users"); err != nil {
		return err
	}

	if len(args) == 0 || len(args)%2 != 0 {
		t.reply(msg, "ROLEMENU_ERROR")
		return errUsage
	}
	choices := make([]menu.RoleChoice, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		role, emoji := args[i], args[i+1]
		if !t.isRoleRef(role) {
			role, emoji = emoji, role
		}
		if !t.isRoleRef(role) || t.isRoleRef(emoji) {
			t.reply(msg, "ROLEMENU_ERROR")
			return errUsage
		}
		if id, ok := roleMention(role); ok {
			role = id
		}
		choices = append(choices, menu.RoleChoice{Emoji: emoji, Roles: []string{role}})
	}
	return t.env.Roles.AddRoles(ctx, msg.ChannelID, msg.ID, choices, opts)
}

func (t *gameTools) cmdJingles(ctx context.Context, msg *listener.Message, args []string) error {
	if t.env.Jingles == nil {
		t.reply(msg, "JINGLES_DISABLED")
		return nil
	}
	if len(args) == 0 || len(args)%2 != 0 {
		t.reply(msg, "JINGLES_ERROR")
		return errUsage
	}
	jingles := make([]menu.Jingle, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		jingles = append(jingles, menu.Jingle{Emoji: args[i], Source: args[i+1]})
	}
	return t.env.Jingles.Add(ctx, msg.ChannelID, msg.ID, jingles, menu.DefaultJingleOptions())
}

func (t *gameTools) cmdStats(ctx context.Context, msg *listener.Message, args []string) error {
	if t.env.History == nil {
		t.reply(msg, "HISTORY_DISABLED")
		return nil
	}
	if len(args) == 0 {
		return errUsage
	}
	limit := DefaultStatsLimit
	if n := len(args); n > 1 {
		if v, err := strconv.Atoi(args[n-1]); err == nil && v > 0 {
			limit, args = v, args[:n-1]
		}
	}
	l, err := t.find(strings.Join(args, " "))
	if err != nil {
		return err
	}
	records, err := t.env.History.Victories(ctx, l.Name(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		t.reply(msg, "NO_VICTORY", l.Name())
		return nil
	}

	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "- %s", r.WonAt.Format("2006-01-02 15:04"))
		if r.ChannelID != "" {
			fmt.Fprintf(&b, " in %s (round %d)", t.env.ChannelName(r.ChannelID), r.Round)
		}
		if r.Helped {
			b.WriteString(" [helped]")
		}
		b.WriteString("\n")
	}
	t.reply(msg, "STATS", l.Name(), len(records), b.String())
	return nil
}

func (t *gameTools) cmdTeams(ctx context.Context, msg *listener.Message, args []string) error {
	if t.env.Teams == nil || t.env.SetTeams == nil {
		return types.NewGameError(types.ErrInvalidConfiguration, "teams are not available")
	}
	if len(args) == 0 {
		t.reply(msg, "TEAMS", t.env.Teams())
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	if err := t.env.SetTeams(ctx, n); err != nil {
		return err
	}
	t.reply(msg, "TEAMS_SET", n)
	return nil
}
