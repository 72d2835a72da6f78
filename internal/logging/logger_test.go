package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/stretchr/testify/suite"
)

type LoggerTestSuite struct {
	suite.Suite
	buf    *bytes.Buffer
	logger *Logger
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (s *LoggerTestSuite) SetupTest() {
	s.buf = &bytes.Buffer{}
	s.logger = NewLoggerTo(s.buf, INFO)
}

func (s *LoggerTestSuite) TestLevelFiltering() {
	s.logger.Debug("hidden")
	s.logger.Info("shown %d", 1)

	s.NotContains(s.buf.String(), "hidden")
	s.Contains(s.buf.String(), "INFO")
	s.Contains(s.buf.String(), "shown 1")
	s.Contains(s.buf.String(), "logger_test.go")
}

func (s *LoggerTestSuite) TestCriticalAlwaysWritten() {
	s.logger.SetLevel(CRITICAL)
	s.logger.Error("dropped")
	s.logger.Critical("bad token")

	s.NotContains(s.buf.String(), "dropped")
	s.Contains(s.buf.String(), "CRIT")
}

func (s *LoggerTestSuite) TestWithPrefix() {
	s.logger.With("guild").With("manager").Warn("stale menu")

	s.Contains(s.buf.String(), "[guild/manager] stale menu")
}

func (s *LoggerTestSuite) TestLogError() {
	s.logger.LogError(types.WrapError(types.ErrNotFound, "menu message", errors.New("404")))
	s.Contains(s.buf.String(), "Code: NOT_FOUND")
	s.Contains(s.buf.String(), "Cause: 404")

	s.buf.Reset()
	s.logger.LogError(errors.New("plain"))
	s.Contains(s.buf.String(), "Unexpected error: plain")
}

func (s *LoggerTestSuite) TestParseLevel() {
	s.Equal(DEBUG, ParseLevel("debug"))
	s.Equal(WARN, ParseLevel(" Warning "))
	s.Equal(ERROR, ParseLevel("error"))
	s.Equal(INFO, ParseLevel("nonsense"))
}

type lineSink struct {
	levels []Level
	lines  []string
}

func (k *lineSink) Write(level Level, line string) {
	k.levels = append(k.levels, level)
	k.lines = append(k.lines, line)
}

func (s *LoggerTestSuite) TestMirrorCopiesDerivedLoggers() {
	guild := s.logger.With("guild g1")
	sink := &lineSink{}
	m := guild.Mirror(sink, WARN)

	guild.With("rooms").Warn("no password")
	guild.Info("below the mirror level")
	s.logger.Error("another guild")

	s.Require().Len(sink.lines, 1)
	s.Equal(WARN, sink.levels[0])
	s.Contains(sink.lines[0], "[guild g1/rooms] no password")
	s.Contains(sink.lines[0], "logger_test.go")

	m.SetLevel(INFO)
	guild.Info("now mirrored")
	s.Len(sink.lines, 2)

	m.Close()
	guild.Error("after close")
	s.Len(sink.lines, 2)
	s.Contains(s.buf.String(), "after close")
}

func (s *LoggerTestSuite) TestUnmirroredSkipsSinks() {
	sink := &lineSink{}
	s.logger.Mirror(sink, DEBUG)

	s.logger.Unmirrored().Error("sink failure")

	s.Empty(sink.lines)
	s.Contains(s.buf.String(), "sink failure")
}

func (s *LoggerTestSuite) TestLevelString() {
	s.Equal("WARN", WARN.String())
	s.Equal("CRIT", CRITICAL.String())
}
