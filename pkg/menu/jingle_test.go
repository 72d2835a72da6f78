package menu

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord/mock"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/audio"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	channel string
	playing bool
	paused  bool
	failing bool
}

var _ audio.Player = (*fakePlayer)(nil)

func (p *fakePlayer) Play(_ context.Context, _, channelID, source string, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return errors.New("broken")
	}
	if !force && p.playing {
		return audio.ErrBusy
	}
	p.played = append(p.played, source)
	p.channel = channelID
	p.playing, p.paused = true, false
	return nil
}

func (p *fakePlayer) Pause(string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return audio.ErrNothingPlaying
	}
	p.playing, p.paused = false, true
	return nil
}

func (p *fakePlayer) Resume(string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return audio.ErrNothingPlaying
	}
	p.playing, p.paused = true, false
	return nil
}

func (p *fakePlayer) Stop(string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing && !p.paused {
		return audio.ErrNothingPlaying
	}
	p.playing, p.paused = false, false
	return nil
}

func (p *fakePlayer) IsPlaying(string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) IsPaused(string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *fakePlayer) LastSource(string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.played) == 0 {
		return ""
	}
	return p.played[len(p.played)-1]
}

type JinglePaletteTestSuite struct {
	suite.Suite
	ctx     context.Context
	session *mock.SessionHandler
	player  *fakePlayer
	palette *JinglePalette
}

func TestJinglePaletteSuite(t *testing.T) {
	suite.Run(t, new(JinglePaletteTestSuite))
}

func (s *JinglePaletteTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.session = &mock.SessionHandler{}
	s.session.Test(s.T())
	s.player = &fakePlayer{}
	s.palette = NewJinglePalette(s.session, s.player, roles, "g", logging.NewLoggerTo(&bytes.Buffer{}, logging.ERROR))
}

func (s *JinglePaletteTestSuite) allow() {
	s.session.On("BotUserID").Return("bot").Maybe()
	s.session.On("GuildMember", "g", tmock.Anything).Return(&discordgo.Member{}, nil).Maybe()
	s.session.On("ChannelMessageSend", "ch", tmock.Anything).Return(&discordgo.Message{ID: "display"}, nil).Maybe()
	s.session.On("ChannelMessageEdit", "ch", "display", tmock.Anything).Return(&discordgo.Message{}, nil).Maybe()
	s.session.On("MessageReactionsRemoveAll", "ch", "menu").Return(nil).Maybe()
	s.session.On("MessageReactionAdd", "ch", "menu", tmock.Anything).Return(nil).Maybe()
	s.session.On("MessageReactionRemove", "ch", "menu", tmock.Anything, tmock.Anything).Return(nil).Maybe()
}

func (s *JinglePaletteTestSuite) addPalette(opts JingleOptions) {
	s.Require().NoError(s.palette.Add(s.ctx, "ch", "menu", []Jingle{
		{Emoji: "🎺", Source: "horn.dca"},
		{Emoji: StopEmoji, Source: "stolen.dca"},
		{Emoji: "🥁", Source: "drums.dca"},
	}, opts))
}

func (s *JinglePaletteTestSuite) TestAddDropsControlCollisions() {
	s.allow()
	s.addPalette(DefaultJingleOptions())

	for _, e := range []string{PauseEmoji, StopEmoji, "🎺", "🥁"} {
		s.session.AssertCalled(s.T(), "MessageReactionAdd", "ch", "menu", e)
	}
	s.session.AssertNumberOfCalls(s.T(), "MessageReactionAdd", 4)
	s.session.AssertCalled(s.T(), "ChannelMessageEdit", "ch", "display", "🎵 Jingle palette ready!")
}

func (s *JinglePaletteTestSuite) TestInvalidEmojiFailsLoading() {
	s.session.On("MessageReactionAdd", "ch", "menu", "🥁").Return(errors.New("unknown emoji")).Once()
	s.allow()
	s.addPalette(DefaultJingleOptions())

	s.session.AssertCalled(s.T(), "ChannelMessageEdit", "ch", "display", tmock.MatchedBy(func(c string) bool {
		return c != "🎵 Jingle palette ready!"
	}))
}

func (s *JinglePaletteTestSuite) TestFailedClearIsLogged() {
	var out bytes.Buffer
	s.palette = NewJinglePalette(s.session, s.player, roles, "g", logging.NewLoggerTo(&out, logging.DEBUG))
	s.session.On("MessageReactionAdd", "ch", "menu", "🥁").Return(errors.New("unknown emoji")).Once()
	s.session.On("MessageReactionsRemoveAll", "ch", "menu").Return(errors.New("missing access"))
	s.allow()

	s.addPalette(DefaultJingleOptions())

	s.Equal(2, strings.Count(out.String(), "clearing reactions of menu: missing access"))
}

func (s *JinglePaletteTestSuite) TestPlayInVoiceChannel() {
	s.session.On("VoiceChannelOf", "g", "u1").Return("voice", nil)
	s.allow()
	s.addPalette(DefaultJingleOptions())

	s.palette.HandleAdd(s.ctx, addEvent("🎺", "u1").MessageReaction, &discordgo.Member{})

	s.Equal([]string{"horn.dca"}, s.player.played)
	s.Equal("voice", s.player.channel)
	s.session.AssertCalled(s.T(), "ChannelMessageEdit", "ch", "display", "▶️ Playing horn.dca")
	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🎺", "u1")
}

func (s *JinglePaletteTestSuite) TestNotInVoiceChannel() {
	s.session.On("VoiceChannelOf", "g", "u1").Return("", nil)
	s.allow()
	s.addPalette(DefaultJingleOptions())

	s.palette.HandleAdd(s.ctx, addEvent("🎺", "u1").MessageReaction, &discordgo.Member{})

	s.Empty(s.player.played)
	s.session.AssertCalled(s.T(), "ChannelMessageEdit", "ch", "display", "❌ Cannot play, you are not in a voice channel!")
}

func (s *JinglePaletteTestSuite) TestPauseResumeStop() {
	s.session.On("VoiceChannelOf", "g", "u1").Return("voice", nil)
	s.allow()
	s.addPalette(DefaultJingleOptions())
	member := &discordgo.Member{}

	s.palette.HandleAdd(s.ctx, addEvent("🎺", "u1").MessageReaction, member)
	s.palette.HandleAdd(s.ctx, addEvent(PauseEmoji, "u1").MessageReaction, member)
	s.True(s.player.IsPaused("g"))

	s.palette.HandleRemove(s.ctx, removeEvent(PauseEmoji, "u1"))
	s.True(s.player.IsPlaying("g"))

	s.palette.HandleAdd(s.ctx, addEvent(StopEmoji, "u1").MessageReaction, member)
	s.False(s.player.IsPlaying("g"))
	s.session.AssertCalled(s.T(), "ChannelMessageEdit", "ch", "display", "⏹ Jingle stopped!")
}

func (s *JinglePaletteTestSuite) TestRequiredRole() {
	s.allow()
	opts := DefaultJingleOptions()
	opts.RequiredRoles = []string{"MASTER"}
	s.addPalette(opts)

	s.palette.HandleAdd(s.ctx, addEvent("🎺", "u1").MessageReaction, &discordgo.Member{Roles: []string{"r-1"}})

	s.Empty(s.player.played)
	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🎺", "u1")
}
