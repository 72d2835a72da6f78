package games

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fadedpez/gamemaster/pkg/audio"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const musicCatalog = testCatalog + `
  - type: MUSIC_TOOLS
    name: Music
    auto_start: true
`

type playerMock struct {
	tmock.Mock
}

var _ audio.Player = (*playerMock)(nil)

func (p *playerMock) Play(ctx context.Context, guildID, channelID, source string, force bool) error {
	return p.Called(guildID, channelID, source, force).Error(0)
}

func (p *playerMock) Pause(guildID string) error { return p.Called(guildID).Error(0) }
func (p *playerMock) Resume(guildID string) error { return p.Called(guildID).Error(0) }
func (p *playerMock) Stop(guildID string) error { return p.Called(guildID).Error(0) }

func (p *playerMock) IsPlaying(guildID string) bool { return p.Called(guildID).Bool(0) }
func (p *playerMock) IsPaused(guildID string) bool { return p.Called(guildID).Bool(0) }

func (p *playerMock) LastSource(guildID string) string { return p.Called(guildID).String(0) }

type MusicToolsTestSuite struct {
	gamesSuite
	player *playerMock
	songs  string
}

func TestMusicToolsSuite(t *testing.T) {
	suite.Run(t, new(MusicToolsTestSuite))
}

func (s *MusicToolsTestSuite) SetupTest() {
	s.setupGames(musicCatalog)
	s.player = &playerMock{}
	s.player.Test(s.T())
	s.songs = s.T().TempDir()
	for _, name := range []string{"fanfare.dca", "drums.dca", "notes.txt"} {
		s.Require().NoError(os.WriteFile(filepath.Join(s.songs, name), []byte{0}, 0o600))
	}
	s.env.Player = s.player
	s.env.SongsDir = s.songs
}

func (s *MusicToolsTestSuite) TearDownTest() {
	s.player.AssertExpectations(s.T())
}

func (s *MusicToolsTestSuite) TestPlayInTheAuthorsVoiceChannel() {
	// Setup
	s.session.On("VoiceChannelOf", "g", "u-master").Return("v-1", nil)
	s.player.On("Play", "g", "v-1", filepath.Join(s.songs, "fanfare.dca"), false).Return(nil).Once()

	// Execute
	s.command("~play fanfare")

	// Assert
	s.Contains(s.said(boardID), "Playing `fanfare.dca`")
}

func (s *MusicToolsTestSuite) TestPlayForceAndPathsAreDropped() {
	// Setup
	s.session.On("VoiceChannelOf", "g", "u-master").Return("v-1", nil)
	s.player.On("Play", "g", "v-1", filepath.Join(s.songs, "drums.dca"), true).Return(nil).Once()

	// Execute
	s.command("~play_song ../../drums.dca --force")

	// Assert
	s.Contains(s.said(boardID), "Playing `drums.dca`")
}

func (s *MusicToolsTestSuite) TestPlayWhileBusy() {
	// Setup
	s.session.On("VoiceChannelOf", "g", "u-master").Return("v-1", nil)
	s.player.On("Play", "g", "v-1", tmock.Anything, false).Return(audio.ErrBusy).Once()
	s.player.On("LastSource", "g").Return(filepath.Join(s.songs, "drums.dca")).Once()

	// Execute
	s.command("~play fanfare")

	// Assert
	s.Contains(s.said(boardID), "`drums.dca` is playing, add `--force` to replace it")
}

func (s *MusicToolsTestSuite) TestPlayOutsideVoice() {
	s.session.On("VoiceChannelOf", "g", "u-master").Return("", errors.New("not in voice"))

	s.command("~play fanfare")

	s.Contains(s.said(boardID), "Join a voice channel first")
}

func (s *MusicToolsTestSuite) TestPlayUnknownSong() {
	s.command("~play anthem")

	s.Contains(s.said(boardID), "No song named `anthem`")
	s.session.AssertNotCalled(s.T(), "VoiceChannelOf", tmock.Anything, tmock.Anything)
}

func (s *MusicToolsTestSuite) TestPlayNeedsOneSong() {
	s.command("~play")
	s.command("~play fanfare drums")

	s.Contains(s.said(boardID), "Usage: `~play <song> [--force]`")
}

func (s *MusicToolsTestSuite) TestSongs() {
	s.command("~show_songs")

	s.Contains(s.said(boardID), "**Songs**\n- `drums`\n- `fanfare`\n")
	s.NotContains(s.said(boardID), "notes")
}

func (s *MusicToolsTestSuite) TestNoSongs() {
	s.env.SongsDir = filepath.Join(s.songs, "missing")

	s.command("~songs")

	s.Contains(s.said(boardID), "No song available")
}

func (s *MusicToolsTestSuite) TestPauseResumeStop() {
	// Setup
	s.player.On("Pause", "g").Return(nil).Once()
	s.player.On("Resume", "g").Return(nil).Once()
	s.player.On("Stop", "g").Return(nil).Once()

	// Execute
	s.command("~pause")
	s.command("~resume")
	s.command("~stop_song")

	// Assert
	said := s.said(boardID)
	s.Contains(said, "Music paused")
	s.Contains(said, "Music resumed")
	s.Contains(said, "Music stopped")
}

func (s *MusicToolsTestSuite) TestStopWhenIdle() {
	s.player.On("Stop", "g").Return(audio.ErrNothingPlaying).Once()

	s.command("~stop")

	s.Contains(s.said(boardID), "Nothing is playing")
}

func (s *MusicToolsTestSuite) TestWithoutPlayer() {
	// Setup
	s.env.Player = nil

	// Execute
	s.command("~play fanfare")
	s.command("~stop")

	// Assert
	s.Contains(s.said(boardID), "Music is not available")
}

func (s *MusicToolsTestSuite) TestPlayersCannotUseMusic() {
	s.write(boardID, "ana", "~songs")

	s.Empty(s.said(boardID))
}
