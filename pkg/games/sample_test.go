package games

import (
	"testing"

	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/stretchr/testify/suite"
)

type SampleGameTestSuite struct {
	gamesSuite
}

func TestSampleGameSuite(t *testing.T) {
	suite.Run(t, new(SampleGameTestSuite))
}

func (s *SampleGameTestSuite) SetupTest() {
	s.setupGames(testCatalog)
}

func (s *SampleGameTestSuite) start() {
	ok, err := s.listener("Riddle").Start(s.ctx)
	s.Require().NoError(err)
	s.Require().True(ok)
}

func (s *SampleGameTestSuite) TestNeedsAnswer() {
	_, err := newSampleGame(s.env, catalog.ListenerSpec{Type: TypeSample, Name: "Empty"})

	s.True(types.IsGameError(err, types.ErrInvalidConfiguration))
}

func (s *SampleGameTestSuite) TestExactAnswerWins() {
	// Setup
	s.start()

	// Execute
	s.write(room1ID, "bob", "blue whale")

	// Assert
	s.True(s.listener("Riddle").Active(), "Strict mode should require the exact answer")

	// Execute
	s.write(room1ID, "ana", " Blue Whale ")

	// Assert
	s.False(s.listener("Riddle").Active())
	s.Contains(s.said(room1ID), "Well done ana, the answer was **Blue Whale**!")
	records, err := s.repo.ListVictories(s.ctx, "g", "Riddle", 10)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.False(records[0].Helped)
}

func (s *SampleGameTestSuite) TestSimpleModeAcceptsPartialAnswer() {
	// Setup
	s.listener("Riddle").SetSimpleMode(true)
	s.start()

	// Execute
	s.write(room2ID, "ana", "I think it is a BLUE WHALE!")

	// Assert
	s.False(s.listener("Riddle").Active())
	s.Contains(s.said(room2ID), "Well done ana")
}

func (s *SampleGameTestSuite) TestStoppedGameIgnoresAnswer() {
	s.write(room1ID, "ana", "Blue Whale")

	s.Empty(s.said(room1ID))
}

func (s *SampleGameTestSuite) TestHelpedVictoryOnStoppedGame() {
	// Execute
	err := s.listener("Riddle").HelpedVictory(s.ctx)

	// Assert
	s.NoError(err)
	s.Empty(s.said(room1ID), "A stopped game should end silently")
}

func (s *SampleGameTestSuite) TestRestartClearsWinner() {
	// Setup
	s.start()
	s.write(room1ID, "ana", "Blue Whale")
	s.forget()

	// Execute
	s.start()
	s.write(room1ID, "bob", "Blue Whale")

	// Assert
	s.Contains(s.said(room1ID), "Well done bob")
	s.NotContains(s.said(room1ID), "ana")
}
