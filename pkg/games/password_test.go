package games

import (
	"testing"

	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/stretchr/testify/suite"
)

type PasswordGameTestSuite struct {
	gamesSuite
}

func TestPasswordGameSuite(t *testing.T) {
	suite.Run(t, new(PasswordGameTestSuite))
}

func (s *PasswordGameTestSuite) SetupTest() {
	s.setupGames(testCatalog)
	ok, err := s.listener("Vault").Start(s.ctx)
	s.Require().NoError(err)
	s.Require().True(ok)
}

func (s *PasswordGameTestSuite) startChannel(channelID string) {
	ok, err := s.listener("Vault").StartChannel(s.ctx, channelID)
	s.Require().NoError(err)
	s.Require().True(ok)
}

func (s *PasswordGameTestSuite) TestNeedsPasswords() {
	spec := catalog.ListenerSpec{Type: TypePassword, Name: "Empty", Options: map[string]string{"passwords": " , "}}

	_, err := newPasswordGame(s.env, spec)

	s.True(types.IsGameError(err, types.ErrInvalidConfiguration))
}

func (s *PasswordGameTestSuite) TestStartTracksAllowedChannels() {
	s.Len(s.listener("Vault").ChannelStatuses(), 2)
}

func (s *PasswordGameTestSuite) TestChannelStartDrawsPassword() {
	// Execute
	s.startChannel(room1ID)

	// Assert
	status := s.listener("Vault").ChannelStatus(room1ID)
	s.True(status.Active())
	password, ok := status.Data(PasswordKey)
	s.True(ok)
	s.Equal("open sesame", password)
	s.Contains(s.said(room1ID), "A password opens the way out of room-1.")
}

func (s *PasswordGameTestSuite) TestWinOneChannel() {
	// Setup
	s.startChannel(room1ID)
	s.startChannel(room2ID)

	// Execute
	s.write(room1ID, "bob", "sesame")
	s.write(room1ID, "ana", "open sesame")

	// Assert
	vault := s.listener("Vault")
	s.False(vault.ChannelStatus(room1ID).Active())
	s.Equal(1, vault.ChannelStatus(room1ID).NumberOfGames())
	s.True(vault.ChannelStatus(room2ID).Active())
	s.True(vault.Active(), "The game should go on while a room is closed")
	s.Contains(s.said(room1ID), "Correct, ana! room-1 is open.")
	s.NotContains(s.said(room1ID), "bob")
}

func (s *PasswordGameTestSuite) TestWinEveryChannelEndsGame() {
	// Setup
	s.startChannel(room1ID)
	s.startChannel(room2ID)

	// Execute
	s.write(room1ID, "ana", "open sesame")
	s.write(room2ID, "bob", "open sesame")

	// Assert
	s.False(s.listener("Vault").Active())
	s.Contains(s.said(room1ID), "Every room is open, well played!")
	s.Contains(s.said(room2ID), "Every room is open, well played!")
	records, err := s.repo.ListVictories(s.ctx, "g", "Vault", 10)
	s.Require().NoError(err)
	s.Len(records, 3, "Two channel wins and the game win should be recorded")
}

func (s *PasswordGameTestSuite) TestInactiveChannelIgnoresPassword() {
	s.write(room2ID, "ana", "open sesame")

	s.Zero(s.listener("Vault").ChannelStatus(room2ID).NumberOfGames())
	s.Empty(s.said(room2ID))
}

func (s *PasswordGameTestSuite) TestStrictModeIsCaseSensitive() {
	// Setup
	s.startChannel(room1ID)

	// Execute
	s.write(room1ID, "ana", "OPEN SESAME")

	// Assert
	s.True(s.listener("Vault").ChannelStatus(room1ID).Active())

	// Execute
	s.listener("Vault").SetSimpleMode(true)
	s.write(room1ID, "ana", "OPEN SESAME")

	// Assert
	s.False(s.listener("Vault").ChannelStatus(room1ID).Active())
}

func (s *PasswordGameTestSuite) TestPlayLimit() {
	// Setup
	s.startChannel(room1ID)
	s.write(room1ID, "ana", "open sesame")

	// Execute
	ok, err := s.listener("Vault").StartChannel(s.ctx, room1ID)

	// Assert
	s.False(ok)
	s.True(types.IsGameError(err, types.ErrPlayLimitReached))
}

func (s *PasswordGameTestSuite) TestHelpedChannelVictory() {
	// Setup
	s.startChannel(room2ID)

	// Execute
	err := s.listener("Vault").ChannelHelpedVictory(s.ctx, room2ID)

	// Assert
	s.NoError(err)
	s.Contains(s.said(room2ID), "The game master opened room-2.")
	s.Equal(1, s.listener("Vault").ChannelStatus(room2ID).NumberOfGames())
}

func (s *PasswordGameTestSuite) TestPasswordSurvivesRestart() {
	// Setup
	s.startChannel(room1ID)
	vault := s.listener("Vault")
	vault.StopChannel(s.ctx, room1ID)

	// Execute
	s.startChannel(room1ID)

	// Assert
	password, ok := vault.ChannelStatus(room1ID).Data(PasswordKey)
	s.True(ok)
	s.Equal("open sesame", password)
}
