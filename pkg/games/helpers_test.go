package games

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord/mock"
	base "github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/history"
	"github.com/fadedpez/gamemaster/pkg/listener"
	"github.com/fadedpez/gamemaster/pkg/manager"
	"github.com/fadedpez/gamemaster/pkg/menu"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testCatalog = `
versions:
  - name: en
    emoji: "🇬🇧"
roles:
  - key: MASTER
    name: Game master
  - key: DEV
    name: Developer
  - key: RED
    name: Red team
channels:
  - key: BOARD
    name: board
  - key: ROOM_1
    name: room-1
  - key: ROOM_2
    name: room-2
  - key: LOG
    name: log
listeners:
  - type: GAME_TOOLS
    name: Tools
    auto_start: true
  - type: SAMPLE_GAME
    name: Riddle
    description: Guess the animal
    options:
      answer: Blue Whale
      question: What is the biggest animal?
      channel: ROOM_1
  - type: PASSWORD_GAME
    name: Vault
    description: Open every room
    allowed_channels: [ROOM_1, ROOM_2]
    max_plays: 1
    options:
      passwords: open sesame
`

const (
	boardID      = "c-board"
	room1ID      = "c-1"
	room2ID      = "c-2"
	logID        = "c-log"
	masterRoleID = "r-master"
)

// gamesSuite builds every built-in listener of testCatalog on a mocked session
// and records what the bot writes per channel.
type gamesSuite struct {
	suite.Suite
	ctx       context.Context
	session   *mock.SessionHandler
	catalog   *catalog.Catalog
	directory *catalog.Directory
	manager   *manager.Manager
	repo      *history.MemoryRepository
	env       *base.Env
	listeners []*listener.Listener
	teams     int
	logs      bytes.Buffer

	mu   sync.Mutex
	sent map[string][]string
}

func (s *gamesSuite) setupGames(yaml string) {
	s.ctx = context.Background()
	s.session = &mock.SessionHandler{}
	s.session.Test(s.T())
	s.sent = map[string][]string{}
	s.teams = 3
	s.logs.Reset()

	s.session.On("ChannelMessageSend", tmock.Anything, tmock.Anything).
		Run(func(args tmock.Arguments) {
			s.mu.Lock()
			defer s.mu.Unlock()
			ch := args.String(0)
			s.sent[ch] = append(s.sent[ch], args.String(1))
		}).
		Return(&discordgo.Message{ID: "sent"}, nil).Maybe()
	s.session.On("MessageReactionsRemoveAll", tmock.Anything, tmock.Anything).Return(nil).Maybe()
	s.session.On("MessageReactionAdd", tmock.Anything, tmock.Anything, tmock.Anything).Return(nil).Maybe()

	cat, err := catalog.Parse([]byte(yaml))
	s.Require().NoError(err)
	s.catalog = cat
	s.directory = catalog.NewDirectory()
	s.directory.SetRole("MASTER", masterRoleID)
	s.directory.SetRole("DEV", "r-dev")
	s.directory.SetRole("RED", "r-red")
	s.directory.SetChannel("BOARD", boardID)
	s.directory.SetChannel("ROOM_1", room1ID)
	s.directory.SetChannel("ROOM_2", room2ID)
	s.directory.SetChannel("LOG", logID)

	s.repo = history.NewMemoryRepository()
	recorder := history.NewRecorder(s.repo, "g", nil)
	versions := func() []string { return []string{"en"} }
	s.manager = manager.New(manager.Config{
		Session:   s.session,
		GuildID:   "g",
		Catalog:   cat,
		Directory: s.directory,
		Versions:  versions,
		Observer:  recorder,
	})
	s.env = &base.Env{
		Session:   s.session,
		GuildID:   "g",
		Catalog:   cat,
		Directory: s.directory,
		Manager:   s.manager,
		Roles:     menu.NewRoleMenu(menu.NewEngine(s.session, s.directory, nil), "g"),
		History:   recorder,
		Logger:    logging.NewLoggerTo(&s.logs, logging.DEBUG),
		Versions:  versions,
		Teams:     func() int { return s.teams },
		SetTeams: func(_ context.Context, n int) error {
			s.teams = n
			return nil
		},
	}

	registry := base.NewRegistry()
	s.Require().NoError(Register(registry))
	s.listeners, err = registry.BuildAll(s.env)
	s.Require().NoError(err)
	s.manager.AddListeners(s.ctx, s.listeners)
}

func (s *gamesSuite) listener(name string) *listener.Listener {
	for _, l := range s.listeners {
		if l.Name() == name {
			return l
		}
	}
	s.FailNow("no listener " + name)
	return nil
}

// write delivers a message to every active listener, as a session would
func (s *gamesSuite) write(channelID, username, content string, roles ...string) {
	ev := &listener.Event{
		Type:    listener.EventMessageCreate,
		GuildID: "g",
		Payload: &discordgo.MessageCreate{Message: &discordgo.Message{
			ID:        "m-" + username,
			ChannelID: channelID,
			GuildID:   "g",
			Content:   content,
			Author:    &discordgo.User{ID: "u-" + username, Username: username},
			Member:    &discordgo.Member{Roles: roles},
		}},
	}
	for _, l := range s.listeners {
		if l.Active() {
			s.NoError(l.Handle(s.ctx, ev))
		}
	}
}

// command writes content as a game master in the board channel
func (s *gamesSuite) command(content string) {
	s.write(boardID, "master", content, masterRoleID)
}

func (s *gamesSuite) said(channelID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.sent[channelID], "\n")
}

func (s *gamesSuite) forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = map[string][]string{}
}
