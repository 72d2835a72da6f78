package discord_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/discord/mock"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LogChannelTestSuite struct {
	suite.Suite
	session *mock.SessionHandler
	out     *bytes.Buffer
	logger  *logging.Logger
}

func TestLogChannelSuite(t *testing.T) {
	suite.Run(t, new(LogChannelTestSuite))
}

func (s *LogChannelTestSuite) SetupTest() {
	s.session = &mock.SessionHandler{}
	s.session.Test(s.T())
	s.out = &bytes.Buffer{}
	s.logger = logging.NewLoggerTo(s.out, logging.DEBUG)
}

func (s *LogChannelTestSuite) TestMirroredLinesArePosted() {
	// Setup
	s.session.On("ChannelMessageSend", "c-log", tmock.MatchedBy(func(c string) bool {
		return strings.HasPrefix(c, "**WARN** ```") && strings.Contains(c, "no password")
	})).Return(&discordgo.Message{}, nil).Once()
	lc := discord.NewLogChannel(s.session, "c-log", 10, s.logger)
	m := s.logger.Mirror(lc, logging.WARN)

	// Execute
	s.logger.Info("kept local")
	s.logger.Warn("no password")
	m.Close()
	lc.Close()

	// Assert
	s.session.AssertExpectations(s.T())
	s.Zero(lc.Dropped())
}

func (s *LogChannelTestSuite) TestPostFailureIsNotMirrored() {
	// Setup
	s.session.On("ChannelMessageSend", "c-log", tmock.Anything).Return(nil, assert.AnError).Once()
	lc := discord.NewLogChannel(s.session, "c-log", 10, s.logger)
	s.logger.Mirror(lc, logging.DEBUG)

	// Execute
	s.logger.Error("boom")
	lc.Close()

	// Assert
	s.session.AssertNumberOfCalls(s.T(), "ChannelMessageSend", 1)
	s.Contains(s.out.String(), "posting log line in c-log")
}

func (s *LogChannelTestSuite) TestFullQueueDropsLines() {
	// Setup
	release := make(chan time.Time)
	s.session.On("ChannelMessageSend", "c-log", tmock.Anything).
		WaitUntil(release).Return(&discordgo.Message{}, nil)
	lc := discord.NewLogChannel(s.session, "c-log", 1, s.logger)

	// Execute
	for i := 0; i < 5; i++ {
		lc.Write(logging.ERROR, "line")
	}
	close(release)
	lc.Close()

	// Assert
	s.GreaterOrEqual(lc.Dropped(), 3)
	lc.Write(logging.ERROR, "after close")
}
