package menu

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord/mock"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/samber/mo"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type roleKeys map[string]string

func (r roleKeys) RoleID(ref string) (string, bool) {
	id, ok := r[ref]
	return id, ok
}

var http403 = http.Response{StatusCode: http.StatusForbidden}

var roles = roleKeys{"TEAM_1": "r-1", "TEAM_2": "r-2", "MASTER": "r-master", "BANNED": "r-banned"}

func addEvent(emoji, userID string, memberRoles ...string) *discordgo.MessageReactionAdd {
	return &discordgo.MessageReactionAdd{
		MessageReaction: &discordgo.MessageReaction{
			UserID: userID, MessageID: "menu", ChannelID: "ch", GuildID: "g",
			Emoji: discordgo.Emoji{Name: emoji},
		},
		Member: &discordgo.Member{User: &discordgo.User{ID: userID}, Roles: memberRoles},
	}
}

func removeEvent(emoji, userID string) *discordgo.MessageReaction {
	return &discordgo.MessageReaction{
		UserID: userID, MessageID: "menu", ChannelID: "ch", GuildID: "g",
		Emoji: discordgo.Emoji{Name: emoji},
	}
}

type EngineTestSuite struct {
	suite.Suite
	ctx     context.Context
	session *mock.SessionHandler
	engine  *Engine
	ran     []string
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.session = &mock.SessionHandler{}
	s.session.Test(s.T())
	s.engine = NewEngine(s.session, roles, logging.NewLoggerTo(&bytes.Buffer{}, logging.ERROR))
	s.ran = nil
}

func (s *EngineTestSuite) allow() {
	s.session.On("BotUserID").Return("bot").Maybe()
	s.session.On("MessageReactionsRemoveAll", "ch", "menu").Return(nil).Maybe()
	s.session.On("MessageReactionAdd", "ch", "menu", tmock.Anything).Return(nil).Maybe()
	s.session.On("MessageReactionRemove", "ch", "menu", tmock.Anything, tmock.Anything).Return(nil).Maybe()
}

func (s *EngineTestSuite) record(name string) Action {
	return func(context.Context, *Reaction) error {
		s.ran = append(s.ran, name)
		return nil
	}
}

func (s *EngineTestSuite) addMenu(opts Options) {
	s.Require().NoError(s.engine.Add(s.ctx, "ch", "menu", []Choice{
		{Emoji: "🅰️", Action: s.record("a")},
		{Emoji: "🅱️", Action: s.record("b")},
	}, opts))
}

func (s *EngineTestSuite) TestAddRendersChoices() {
	s.allow()
	s.addMenu(DefaultOptions())

	s.True(s.engine.Has("menu"))
	s.session.AssertCalled(s.T(), "MessageReactionsRemoveAll", "ch", "menu")
	s.session.AssertCalled(s.T(), "MessageReactionAdd", "ch", "menu", "🅰️")
	s.session.AssertCalled(s.T(), "MessageReactionAdd", "ch", "menu", "🅱️")
	s.Error(s.engine.Add(s.ctx, "ch", "empty", nil, DefaultOptions()))
}

func (s *EngineTestSuite) TestOptionChangeLock() {
	s.allow()
	opts := DefaultOptions()
	opts.AllowOptionChange = false
	s.addMenu(opts)

	s.engine.HandleAdd(s.ctx, addEvent("🅰️", "u1"))
	s.engine.HandleAdd(s.ctx, addEvent("🅱️", "u1"))
	s.engine.HandleAdd(s.ctx, addEvent("🅰️", "u1"))

	s.Equal([]string{"a", "a"}, s.ran)
	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🅱️", "u1")
	s.session.AssertNotCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🅰️", "u1")
}

func (s *EngineTestSuite) TestRequiredRolesCheckedBeforeIgnored() {
	s.allow()
	opts := DefaultOptions()
	opts.RequiredRoles = []string{"MASTER"}
	opts.IgnoredRoles = []string{"BANNED"}
	s.addMenu(opts)

	s.engine.HandleAdd(s.ctx, addEvent("🅰️", "u1", "r-master", "r-banned"))
	s.engine.HandleAdd(s.ctx, addEvent("🅰️", "u2", "r-banned"))

	s.Equal([]string{"a"}, s.ran)
	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🅰️", "u2")
}

func (s *EngineTestSuite) TestIgnoredRoleIsSilent() {
	s.allow()
	opts := DefaultOptions()
	opts.IgnoredRoles = []string{"BANNED"}
	s.addMenu(opts)

	s.engine.HandleAdd(s.ctx, addEvent("🅰️", "u1", "r-banned"))

	s.Empty(s.ran)
	s.session.AssertNotCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🅰️", "u1")
}

func (s *EngineTestSuite) TestMaxUsersPerReaction() {
	s.session.On("MessageReactions", "ch", "menu", "🅰️", 100).
		Return([]*discordgo.User{{ID: "bot"}, {ID: "u1"}, {ID: "u2"}}, nil)
	s.allow()
	opts := DefaultOptions()
	opts.MaxUsersPerReaction = mo.Some(1)
	s.addMenu(opts)

	s.engine.HandleAdd(s.ctx, addEvent("🅰️", "u2"))

	s.Empty(s.ran)
	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🅰️", "u2")
}

func (s *EngineTestSuite) TestMaxReactionsPerUser() {
	a, b := discordgo.Emoji{Name: "🅰️"}, discordgo.Emoji{Name: "🅱️"}
	s.session.On("ChannelMessage", "ch", "menu").Return(&discordgo.Message{
		Reactions: []*discordgo.MessageReactions{{Emoji: &a}, {Emoji: &b}},
	}, nil)
	s.session.On("MessageReactions", "ch", "menu", "🅰️", 100).Return([]*discordgo.User{{ID: "u1"}}, nil)
	s.session.On("MessageReactions", "ch", "menu", "🅱️", 100).Return([]*discordgo.User{{ID: "u1"}}, nil)
	s.allow()
	opts := DefaultOptions()
	opts.MaxReactionsPerUser = mo.Some(1)
	s.addMenu(opts)

	s.engine.HandleAdd(s.ctx, addEvent("🅱️", "u1"))

	s.Empty(s.ran)
	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🅱️", "u1")
}

func (s *EngineTestSuite) TestBotsAndUnknownEmojisIgnored() {
	s.allow()
	s.addMenu(DefaultOptions())

	s.engine.HandleAdd(s.ctx, addEvent("🅰️", "bot"))
	s.engine.HandleAdd(s.ctx, addEvent("🍕", "u1"))
	other := addEvent("🅰️", "u1")
	other.MessageID = "other"
	s.engine.HandleAdd(s.ctx, other)

	s.Empty(s.ran)
}

func (s *EngineTestSuite) TestRemoveReactionAfterAction() {
	s.allow()
	opts := DefaultOptions()
	opts.RemoveReactionAfterAction = true
	s.addMenu(opts)

	s.engine.HandleAdd(s.ctx, addEvent("🅰️", "u1"))

	s.Equal([]string{"a"}, s.ran)
	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "🅰️", "u1")
}

type RoleMenuTestSuite struct {
	suite.Suite
	ctx     context.Context
	session *mock.SessionHandler
	menu    *RoleMenu
}

func TestRoleMenuSuite(t *testing.T) {
	suite.Run(t, new(RoleMenuTestSuite))
}

func (s *RoleMenuTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.session = &mock.SessionHandler{}
	s.session.Test(s.T())
	engine := NewEngine(s.session, roles, logging.NewLoggerTo(&bytes.Buffer{}, logging.ERROR))
	s.menu = NewRoleMenu(engine, "g")
}

func (s *RoleMenuTestSuite) allow() {
	s.session.On("BotUserID").Return("bot").Maybe()
	s.session.On("MessageReactionsRemoveAll", "ch", "menu").Return(nil).Maybe()
	s.session.On("MessageReactionAdd", "ch", "menu", tmock.Anything).Return(nil).Maybe()
	s.session.On("MessageReactionRemove", "ch", "menu", tmock.Anything, tmock.Anything).Return(nil).Maybe()
}

func holders(n int, roleID string) []*discordgo.Member {
	members := make([]*discordgo.Member, 0, n)
	for i := 0; i < n; i++ {
		members = append(members, &discordgo.Member{User: &discordgo.User{ID: "holder"}, Roles: []string{roleID}})
	}
	return members
}

func (s *RoleMenuTestSuite) addTeams(opts RoleOptions) {
	s.Require().NoError(s.menu.AddRoles(s.ctx, "ch", "menu", []RoleChoice{
		{Emoji: "1️⃣", Roles: []string{"TEAM_1"}},
		{Emoji: "2️⃣", Roles: []string{"TEAM_2", "UNKNOWN"}},
	}, opts))
}

func (s *RoleMenuTestSuite) TestGrantAndRevoke() {
	s.session.On("GuildMemberRoleAdd", "g", "u1", "r-1").Return(nil).Once()
	s.session.On("GuildMemberRoleRemove", "g", "u1", "r-1").Return(nil).Once()
	s.session.On("GuildMember", "g", "u1").Return(&discordgo.Member{Roles: []string{"r-1"}}, nil).Maybe()
	s.allow()
	s.addTeams(DefaultRoleOptions())

	s.menu.HandleAdd(s.ctx, addEvent("1️⃣", "u1"))
	s.menu.HandleRemove(s.ctx, removeEvent("1️⃣", "u1"))

	s.session.AssertExpectations(s.T())
}

func (s *RoleMenuTestSuite) TestUnknownRoleSkipped() {
	s.session.On("GuildMemberRoleAdd", "g", "u1", "r-2").Return(nil).Once()
	s.allow()
	s.addTeams(DefaultRoleOptions())

	s.menu.HandleAdd(s.ctx, addEvent("2️⃣", "u1"))

	s.session.AssertNumberOfCalls(s.T(), "GuildMemberRoleAdd", 1)
}

func (s *RoleMenuTestSuite) TestLiveRoleLimitRejects() {
	s.session.On("GuildMembers", "g", "", 1000).Return(holders(2, "r-1"), nil)
	s.allow()
	opts := DefaultRoleOptions()
	opts.MaxUsersWithRole = mo.Some(2)
	s.addTeams(opts)

	s.menu.HandleAdd(s.ctx, addEvent("1️⃣", "u3"))

	s.session.AssertNotCalled(s.T(), "GuildMemberRoleAdd", "g", "u3", "r-1")
	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "1️⃣", "u3")
}

func (s *RoleMenuTestSuite) TestLiveRoleLimitKeepsHolderReaction() {
	s.session.On("GuildMembers", "g", "", 1000).Return(holders(2, "r-1"), nil)
	s.allow()
	opts := DefaultRoleOptions()
	opts.MaxUsersWithRole = mo.Some(2)
	s.addTeams(opts)

	s.menu.HandleAdd(s.ctx, addEvent("1️⃣", "holder", "r-1"))

	s.session.AssertNotCalled(s.T(), "GuildMemberRoleAdd", "g", "holder", "r-1")
	s.session.AssertNotCalled(s.T(), "MessageReactionRemove", "ch", "menu", "1️⃣", "holder")
}

func (s *RoleMenuTestSuite) TestUnderLimitGrants() {
	s.session.On("GuildMembers", "g", "", 1000).Return(holders(1, "r-1"), nil)
	s.session.On("GuildMemberRoleAdd", "g", "u3", "r-1").Return(nil).Once()
	s.allow()
	opts := DefaultRoleOptions()
	opts.MaxUsersWithRole = mo.Some(2)
	s.addTeams(opts)

	s.menu.HandleAdd(s.ctx, addEvent("1️⃣", "u3"))

	s.session.AssertExpectations(s.T())
}

func (s *RoleMenuTestSuite) TestPermissionFailureRemovesReaction() {
	s.session.On("GuildMemberRoleAdd", "g", "u1", "r-1").
		Return(&discordgo.RESTError{Response: &http403}).Once()
	s.allow()
	s.addTeams(DefaultRoleOptions())

	s.menu.HandleAdd(s.ctx, addEvent("1️⃣", "u1"))

	s.session.AssertCalled(s.T(), "MessageReactionRemove", "ch", "menu", "1️⃣", "u1")
}
