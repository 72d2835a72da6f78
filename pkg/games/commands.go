package games

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadedpez/gamemaster/internal/discord"
	base "github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/listener"
	"github.com/fadedpez/gamemaster/pkg/manager"
)

var commandTexts = map[string]string{
	"HELP":      "**Commands** [prefix: `%s`]\n%s",
	"UNKNOWN":   "Unknown command `%s`, type `%shelp`",
	"USAGE":     "Usage: `%s%s`",
	"NOT_FOUND": "No listener named `%s`",
}

// withCommandTexts adds the texts every command listener shares to texts
func withCommandTexts(texts map[string]string) map[string]string {
	out := make(map[string]string, len(texts)+len(commandTexts))
	for k, v := range commandTexts {
		out[k] = v
	}
	for k, v := range texts {
		out[k] = v
	}
	return out
}

var errUsage = types.NewGameError(types.ErrInvalidCommand, "bad arguments")

type toolCommand struct {
	names []string
	usage string
	help  string
	run   func(ctx context.Context, msg *listener.Message, args []string) error
}

// commander parses prefixed commands and runs them from a table
type commander struct {
	env      *base.Env
	prefix   string
	l        *listener.Listener
	log      *logging.Logger
	commands []toolCommand
}

func newCommander(env *base.Env, spec catalog.ListenerSpec, prefix string) commander {
	if p, ok := spec.Options["prefix"]; ok && p != "" {
		prefix = p
	}
	return commander{env: env, prefix: prefix}
}

func (t *commander) text(key string, args ...interface{}) string {
	return t.l.Messages().Get(key, args...)
}

func (t *commander) reply(msg *listener.Message, key string, args ...interface{}) {
	t.send(msg.ChannelID, t.text(key, args...))
}

func (t *commander) send(channelID, content string) {
	if _, err := discord.LongSend(t.env.Session, channelID, content); err != nil {
		t.log.Warn("replying in %s: %v", channelID, err)
	}
}

func (t *commander) analyze(ctx context.Context, msg *listener.Message) error {
	if msg.Author == nil || msg.Author.Bot || !strings.HasPrefix(msg.Content, t.prefix) {
		return nil
	}
	fields := strings.Fields(strings.TrimPrefix(msg.Content, t.prefix))
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	for _, c := range t.commands {
		for _, n := range c.names {
			if n != name {
				continue
			}
			t.log.Debug("command %s from %s", name, msg.Author.ID)
			if err := c.run(ctx, msg, args); err != nil {
				if types.IsGameError(err, types.ErrInvalidCommand) {
					t.reply(msg, "USAGE", t.prefix, c.usage)
					return nil
				}
				discord.SafeSend(t.env.Session, t.log, msg.ChannelID, discord.ErrorText(err))
			}
			return nil
		}
	}
	t.reply(msg, "UNKNOWN", name, t.prefix)
	return nil
}

func (t *commander) cmdHelp(_ context.Context, msg *listener.Message, _ []string) error {
	var b strings.Builder
	for _, c := range t.commands {
		fmt.Fprintf(&b, "- `%s%s`: %s\n", t.prefix, c.usage, c.help)
	}
	t.reply(msg, "HELP", t.prefix, b.String())
	return nil
}

func (t *commander) manager() (*manager.Manager, error) {
	if t.env.Manager == nil {
		return nil, types.NewGameError(types.ErrInvalidConfiguration, "no listener manager")
	}
	return t.env.Manager, nil
}

// find looks a listener up by name, ignoring case
func (t *commander) find(name string) (*listener.Listener, error) {
	m, err := t.manager()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errUsage
	}
	for _, l := range m.Listeners() {
		if strings.EqualFold(l.Name(), name) {
			return l, nil
		}
	}
	return nil, types.NewGameError(types.ErrListenerNotFound, t.text("NOT_FOUND", name))
}
