package games

import (
	"context"
	"math/rand"
	"strings"

	"github.com/fadedpez/gamemaster/internal/discord"
	base "github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

// Status data keys
const (
	PasswordKey = "password"
	winnerKey   = "winner"
)

var passwordTexts = map[string]string{
	"CHANNEL_START": "A password opens the way out of %s. Find it and write it here!",
	"FOUND":         "Correct, %s! %s is open.",
	"HELPED":        "The game master opened %s.",
	"ALL_FOUND":     "Every room is open, well played!",
}

// passwordGame is played per channel: each channel keeps the password it
// drew on its first start, and writing it wins the channel.
type passwordGame struct {
	env       *base.Env
	passwords []string
	pick      func(n int) int
	board     *Scoreboard
	l         *listener.Listener
}

func newPasswordGame(env *base.Env, spec catalog.ListenerSpec) (*listener.Listener, error) {
	var passwords []string
	for _, p := range strings.Split(spec.Options["passwords"], ",") {
		if p = strings.TrimSpace(p); p != "" {
			passwords = append(passwords, p)
		}
	}
	if len(passwords) == 0 {
		return nil, types.NewGameError(types.ErrInvalidConfiguration, spec.Name+" needs a passwords option")
	}
	g := &passwordGame{env: env, passwords: passwords, pick: rand.Intn, board: NewScoreboard()}

	opts := base.CommonOptions(env, spec, "password")
	opts = append(opts,
		listener.WithGame(base.SimpleMode(spec)),
		listener.WithChannelScope(base.MaxPlays(spec), env.ChannelName),
		listener.WithHooks(listener.Hooks{
			AnalyzeMessage:       g.analyze,
			InitChannel:          g.initChannel,
			ChannelVictory:       g.channelVictory,
			ChannelHelpedVictory: g.channelHelpedVictory,
			Victory:              g.victory,
		}),
	)
	g.l = listener.New(spec.Name, opts...)
	g.l.Messages().WithFallback(passwordTexts)
	return g.l, nil
}

func (g *passwordGame) say(channelID, key string, args ...interface{}) {
	discord.SafeSend(g.env.Session, g.l.Logger(), channelID, g.l.Messages().Get(key, args...))
}

func (g *passwordGame) initChannel(_ context.Context, status *listener.ChannelGameStatus) (bool, error) {
	status.Clear()
	status.SeedData(PasswordKey, g.passwords[g.pick(len(g.passwords))])
	g.say(status.ChannelID(), "CHANNEL_START", status.ChannelName())
	return true, nil
}

// Password returns the password a channel drew, if it was started once
func (g *passwordGame) Password(channelID string) (string, bool) {
	v, ok := g.l.ChannelStatus(channelID).Data(PasswordKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (g *passwordGame) matches(content, password string) bool {
	content = strings.TrimSpace(content)
	if g.l.IsSimple() {
		return strings.EqualFold(content, password)
	}
	return content == password
}

func (g *passwordGame) analyze(ctx context.Context, msg *listener.Message) error {
	if msg.Author == nil || msg.Author.Bot {
		return nil
	}
	status := g.l.ChannelStatus(msg.ChannelID)
	if !status.Active() {
		return nil
	}
	password, ok := g.Password(msg.ChannelID)
	if !ok || !g.matches(msg.Content, password) {
		return nil
	}
	p := g.board.Credit(msg.Author)
	status.SetData(winnerKey, p.Username)
	return g.l.ChannelVictory(ctx, msg.ChannelID)
}

func (g *passwordGame) channelVictory(_ context.Context, status *listener.ChannelGameStatus) error {
	winner, _ := status.Data(winnerKey)
	g.say(status.ChannelID(), "FOUND", winner, status.ChannelName())
	return nil
}

func (g *passwordGame) channelHelpedVictory(_ context.Context, status *listener.ChannelGameStatus) error {
	g.say(status.ChannelID(), "HELPED", status.ChannelName())
	return nil
}

func (g *passwordGame) victory(_ context.Context) error {
	for _, status := range g.l.ChannelStatuses() {
		g.say(status.ChannelID(), "ALL_FOUND")
	}
	return nil
}
