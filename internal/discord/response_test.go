package discord

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/stretchr/testify/suite"
)

type ResponseTestSuite struct {
	suite.Suite
}

func TestResponseSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) TestErrorText() {
	s.Equal("🚫 not allowed", ErrorText(types.NewGameError(types.ErrPermissionDenied, "not allowed")))
	s.Equal("❌ An error occurred: boom", ErrorText(errors.New("boom")))
}

func (s *ResponseTestSuite) TestSplitMessageShort() {
	s.Equal([]string{"hello"}, SplitMessage("hello"))
}

func (s *ResponseTestSuite) TestSplitMessageOnLines() {
	line := strings.Repeat("a", 1500) + "\n"
	chunks := SplitMessage(line + line)

	s.Len(chunks, 2)
	for _, c := range chunks {
		s.LessOrEqual(len(c), MaxMessageLength)
	}
	s.Equal(line+line, strings.Join(chunks, ""))
}

func (s *ResponseTestSuite) TestSplitMessageLongLineKeepsRunes() {
	content := strings.Repeat("é", 1500)
	chunks := SplitMessage(content)

	s.Greater(len(chunks), 1)
	s.Equal(content, strings.Join(chunks, ""))
	for _, c := range chunks {
		s.True(utf8Boundary(c, 0))
	}
}

func (s *ResponseTestSuite) TestIgnore() {
	log := logging.NewLoggerTo(&strings.Builder{}, logging.DEBUG)
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}

	s.NoError(Ignore(log, "remove reaction", forbidden))
	s.NoError(Ignore(log, "noop", nil))
	cfgErr := types.NewGameError(types.ErrInvalidConfiguration, "bad")
	s.Equal(cfgErr, Ignore(log, "render", cfgErr))
}

func (s *ResponseTestSuite) TestEmojiKey() {
	s.Equal("💚", EmojiKey(discordgo.Emoji{Name: "💚"}))
	s.Equal("party:123", EmojiKey(discordgo.Emoji{Name: "party", ID: "123"}))
}

func (s *ResponseTestSuite) TestHasRole() {
	member := &discordgo.Member{Roles: []string{"r1", "r2"}}
	s.True(HasRole(member, "r2"))
	s.False(HasRole(member, "r3"))
	s.False(HasRole(nil, "r1"))
	s.False(HasRole(member, ""))
}
