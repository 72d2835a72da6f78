package games

import (
	"context"
	"strings"
	"sync"

	"github.com/fadedpez/gamemaster/internal/discord"
	base "github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

var sampleTexts = map[string]string{
	"QUESTION": "%s",
	"FOUND":    "Well done %s, the answer was **%s**!",
	"HELPED":   "The game master ended %s. The answer was **%s**.",
}

// sampleGame is won by the first message holding the answer. In simple
// mode a case-insensitive partial match is enough.
type sampleGame struct {
	env      *base.Env
	answer   string
	question string
	channel  string
	board    *Scoreboard
	l        *listener.Listener

	mu     sync.Mutex
	winner string
	where  string
}

func newSampleGame(env *base.Env, spec catalog.ListenerSpec) (*listener.Listener, error) {
	answer := strings.TrimSpace(spec.Options["answer"])
	if answer == "" {
		return nil, types.NewGameError(types.ErrInvalidConfiguration, spec.Name+" needs an answer option")
	}
	g := &sampleGame{
		env:      env,
		answer:   answer,
		question: spec.Options["question"],
		channel:  spec.Options["channel"],
		board:    NewScoreboard(),
	}

	opts := base.CommonOptions(env, spec, "sample")
	opts = append(opts,
		listener.WithGame(base.SimpleMode(spec)),
		listener.WithHooks(listener.Hooks{
			Init:           g.init,
			AnalyzeMessage: g.analyze,
			Victory:        g.victory,
			HelpedVictory:  g.helpedVictory,
		}),
	)
	g.l = listener.New(spec.Name, opts...)
	g.l.Messages().WithFallback(sampleTexts)
	return g.l, nil
}

func (g *sampleGame) init(_ context.Context) (bool, error) {
	g.mu.Lock()
	g.winner, g.where = "", ""
	g.mu.Unlock()
	if g.question == "" || g.channel == "" {
		return true, nil
	}
	if id, ok := g.env.Directory.ChannelID(g.channel); ok {
		discord.SafeSend(g.env.Session, g.l.Logger(), id, g.l.Messages().Get("QUESTION", g.question))
	}
	return true, nil
}

func (g *sampleGame) matches(content string) bool {
	content = strings.TrimSpace(content)
	if g.l.IsSimple() {
		return strings.Contains(strings.ToLower(content), strings.ToLower(g.answer))
	}
	return content == g.answer
}

func (g *sampleGame) analyze(ctx context.Context, msg *listener.Message) error {
	if msg.Author == nil || msg.Author.Bot || !g.matches(msg.Content) {
		return nil
	}
	p := g.board.Credit(msg.Author)
	g.mu.Lock()
	g.winner, g.where = p.Username, msg.ChannelID
	g.mu.Unlock()
	return g.l.Victory(ctx)
}

func (g *sampleGame) victory(_ context.Context) error {
	g.mu.Lock()
	winner, where := g.winner, g.where
	g.mu.Unlock()
	if where != "" {
		discord.SafeSend(g.env.Session, g.l.Logger(), where, g.l.Messages().Get("FOUND", winner, g.answer))
	}
	return nil
}

func (g *sampleGame) helpedVictory(_ context.Context) error {
	if id, ok := g.env.Directory.ChannelID(g.channel); ok && g.channel != "" {
		discord.SafeSend(g.env.Session, g.l.Logger(), id, g.l.Messages().Get("HELPED", g.l.Name(), g.answer))
	}
	return nil
}
