package games

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/pkg/listener"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const adminCatalog = testCatalog + `
  - type: ADMIN_TOOLS
    name: Admin
    auto_start: true
`

const devRoleID = "r-dev"

type AdminToolsTestSuite struct {
	gamesSuite
}

func TestAdminToolsSuite(t *testing.T) {
	suite.Run(t, new(AdminToolsTestSuite))
}

func (s *AdminToolsTestSuite) SetupTest() {
	s.setupGames(adminCatalog)
	s.session.On("BotUserID").Return("u-bot").Maybe()
}

func (s *AdminToolsTestSuite) TearDownTest() {
	_, _ = s.listener("Admin").Stop(s.ctx)
}

// admin writes content as a developer in the board channel
func (s *AdminToolsTestSuite) admin(content string) {
	s.write(boardID, "dev", content, devRoleID)
}

func (s *AdminToolsTestSuite) logged(text string) func() bool {
	return func() bool { return strings.Contains(s.said(logID), text) }
}

func (s *AdminToolsTestSuite) TestHelp() {
	// Execute
	s.admin(">help")

	// Assert
	s.Contains(s.said(boardID), "**Commands** [prefix: `>`]")
	s.Contains(s.said(boardID), "`>kick <@member|@role> ...`")
	s.Contains(s.said(boardID), "`>log_level")
}

func (s *AdminToolsTestSuite) TestOnlyDevelopers() {
	// Execute
	s.command(">help")
	s.write(boardID, "ana", ">help")

	// Assert
	s.Empty(s.said(boardID))
}

func (s *AdminToolsTestSuite) TestLogsAreMirroredFromTheLevel() {
	// Setup
	riddle := s.listener("Riddle").Logger()

	// Execute
	riddle.Info("riddle loaded")
	riddle.Warn("riddle broke")

	// Assert
	s.Eventually(s.logged("riddle broke"), time.Second, 5*time.Millisecond)
	s.Contains(s.said(logID), "**WARN**")
	s.NotContains(s.said(logID), "riddle loaded")
	s.Contains(s.logs.String(), "riddle loaded", "lower levels are still written locally")
}

func (s *AdminToolsTestSuite) TestLogLevelCommand() {
	// Execute
	s.admin(">log_level")
	s.admin(">log_level debug")
	s.listener("Riddle").Logger().Debug("riddle details")

	// Assert
	s.Contains(s.said(boardID), "Log channel level: WARN")
	s.Contains(s.said(boardID), "Log channel level set to DEBUG")
	s.Eventually(s.logged("riddle details"), time.Second, 5*time.Millisecond)
}

func (s *AdminToolsTestSuite) TestLogLevelRejectsUnknownNames() {
	s.admin(">change_logging_level loud")

	s.Contains(s.said(boardID), "Usage: `>log_level [debug|info|warn|error|critical]`")
}

func (s *AdminToolsTestSuite) TestStopEndsTheMirror() {
	// Setup
	admin := s.listener("Admin")

	// Execute
	ok, err := admin.Stop(s.ctx)
	s.listener("Riddle").Logger().Error("after the stop")

	// Assert
	s.NoError(err)
	s.True(ok)
	s.NotContains(s.said(logID), "after the stop")

	// Execute
	s.forget()
	_, err = admin.Start(s.ctx)
	s.Require().NoError(err)
	s.admin(">log_level")

	// Assert
	s.Contains(s.said(boardID), "Log channel level: WARN", "a restart mirrors again")
}

func (s *AdminToolsTestSuite) TestConnectionNotices() {
	// Setup
	admin := s.listener("Admin")
	event := func(t listener.EventType) *listener.Event {
		return &listener.Event{Type: t, GuildID: "g"}
	}

	// Execute
	s.NoError(admin.Handle(s.ctx, event(listener.EventConnect)))

	// Assert
	s.Contains(s.said(logID), "Connected to the gateway")

	// Execute
	s.admin(">quiet")
	s.NoError(admin.Handle(s.ctx, event(listener.EventDisconnect)))

	// Assert
	s.Contains(s.said(boardID), "Connection notices off")
	s.NotContains(s.said(logID), "Disconnected")

	// Execute
	s.admin(">verbose")
	s.NoError(admin.Handle(s.ctx, event(listener.EventDisconnect)))

	// Assert
	s.Contains(s.said(logID), "Disconnected from the gateway")
}

func (s *AdminToolsTestSuite) TestGuildListings() {
	// Setup
	s.session.On("Guild", "g").Return(&discordgo.Guild{ID: "g", Name: "Arena"}, nil)
	s.session.On("GuildChannels", "g").Return([]*discordgo.Channel{
		{ID: room1ID, Name: "room-1"},
		{ID: "c-x", Name: "random"},
	}, nil)
	s.session.On("GuildRoles", "g").Return([]*discordgo.Role{
		{ID: "r-x", Name: "everyone", Position: 0},
		{ID: masterRoleID, Name: "Game master", Position: 2},
	}, nil)

	// Execute
	s.admin(">info")
	s.admin(">channels")
	s.admin(">roles")

	// Assert
	said := s.said(boardID)
	s.Contains(said, "**Arena**: 2 channels, 2 roles, versions en")
	s.Contains(said, "- `c-1` room-1 [ROOM_1]")
	s.Contains(said, "- `c-x` random \n")
	s.Contains(said, "- `r-master` Game master [MASTER]")
	s.Less(strings.Index(said, "Game master"), strings.Index(said, "everyone"), "roles are listed from the top")
}

func (s *AdminToolsTestSuite) TestKickMembersAndRoles() {
	// Setup
	s.session.On("GuildMembers", "g", "", 1000).Return([]*discordgo.Member{
		{User: &discordgo.User{ID: "u-ana"}, Roles: []string{"r-red"}},
		{User: &discordgo.User{ID: "u-bot"}, Roles: []string{"r-red"}},
		{User: &discordgo.User{ID: "u-bob"}, Roles: []string{masterRoleID}},
	}, nil)
	s.session.On("GuildMemberDeleteWithReason", "g", "u-ana", kickReason).Return(nil).Once()
	s.session.On("GuildMemberDeleteWithReason", "g", "u-zed", kickReason).Return(nil).Once()

	// Execute
	s.admin(">kick <@!u-zed> <@&r-red>")

	// Assert
	s.Contains(s.said(boardID), "Kicked 2 members")
	s.session.AssertNotCalled(s.T(), "GuildMemberDeleteWithReason", "g", "u-bot", tmock.Anything)
	s.session.AssertNotCalled(s.T(), "GuildMemberDeleteWithReason", "g", "u-bob", tmock.Anything)
}

func (s *AdminToolsTestSuite) TestKickSkipsTheAuthor() {
	s.admin(">kick <@u-dev> <@u-bot>")

	s.Contains(s.said(boardID), "Nobody to kick")
	s.session.AssertNotCalled(s.T(), "GuildMemberDeleteWithReason", tmock.Anything, tmock.Anything, tmock.Anything)
}

func (s *AdminToolsTestSuite) TestKickNeedsMentions() {
	s.admin(">kick ana")

	s.Contains(s.said(boardID), "Usage: `>kick <@member|@role> ...`")
}

func (s *AdminToolsTestSuite) TestKickBot() {
	// Setup
	left := false
	s.env.Leave = func(context.Context) error {
		left = true
		return nil
	}

	// Execute
	s.admin(">kick_bot")

	// Assert
	s.True(left)
	s.Contains(s.said(boardID), "Leaving the guild")
}

func (s *AdminToolsTestSuite) TestKickBotUnavailable() {
	s.admin(">leave")

	s.Contains(s.said(boardID), "`kick_bot` is not available")
}

func (s *AdminToolsTestSuite) TestChangeVersion() {
	// Setup
	var got []string
	var channel string
	s.env.ChangeVersion = func(_ context.Context, versions []string, channelID string) error {
		got, channel = versions, channelID
		return nil
	}

	// Execute
	s.admin(">change_version en")
	s.admin(">change_version klingon")

	// Assert
	s.Equal([]string{"en"}, got)
	s.Equal(boardID, channel)
	s.Contains(s.said(boardID), "Versions changed to en")
	s.Contains(s.said(boardID), "Usage: `>change_version <version> ... [--update]`")
}

func (s *AdminToolsTestSuite) TestReload() {
	// Execute
	s.admin(">reload riddle --update")
	s.admin(">reload all")
	s.admin(">reload ghost")

	// Assert
	said := s.said(boardID)
	s.Contains(said, "Reloaded Riddle")
	s.Contains(said, "Reloaded all")
	s.Contains(said, "No listener named `ghost`")
}

func (s *AdminToolsTestSuite) TestListeners() {
	// Setup
	s.session.On("ChannelMessageSendComplex", boardID, tmock.Anything).
		Return(&discordgo.Message{ID: "menu"}, nil)

	// Execute
	s.admin(">listeners")

	// Assert
	s.session.AssertCalled(s.T(), "ChannelMessageSendComplex", boardID, tmock.MatchedBy(func(m *discordgo.MessageSend) bool {
		return strings.Contains(m.Content, "Admin")
	}))
}

func (s *AdminToolsTestSuite) TestControlPanelNeedsTheBoard() {
	s.admin(">control_panel")

	s.Contains(s.said(boardID), "no channel for the control panel")
}
