package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/stretchr/testify/suite"
)

type recordingSink struct {
	mu     sync.Mutex
	frames [][]byte
	gate   chan struct{}
}

func (s *recordingSink) Speaking(bool) error { return nil }

func (s *recordingSink) Send(ctx context.Context, frame []byte) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

type PlayerTestSuite struct {
	suite.Suite
	ctx    context.Context
	sink   *recordingSink
	player *VoicePlayer
	file   string
}

func TestPlayerSuite(t *testing.T) {
	suite.Run(t, new(PlayerTestSuite))
}

func writeDCA(frames ...[]byte) []byte {
	var buf bytes.Buffer
	for _, f := range frames {
		_ = binary.Write(&buf, binary.LittleEndian, int16(len(f)))
		buf.Write(f)
	}
	return buf.Bytes()
}

func (s *PlayerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.sink = &recordingSink{}
	s.player = NewVoicePlayer(nil, logging.NewLoggerTo(&bytes.Buffer{}, logging.ERROR))
	s.player.sink = func(string, string) (FrameSink, error) { return s.sink, nil }
	s.file = filepath.Join(s.T().TempDir(), "jingle.dca")
	s.Require().NoError(os.WriteFile(s.file, writeDCA([]byte{1, 2}, []byte{3}, []byte{4, 5, 6}), 0o644))
}

func (s *PlayerTestSuite) TestReadFrame() {
	r := bytes.NewReader(writeDCA([]byte{9, 8, 7}))
	frame, err := ReadFrame(r)
	s.Require().NoError(err)
	s.Equal([]byte{9, 8, 7}, frame)

	_, err = ReadFrame(bytes.NewReader([]byte{0, 0}))
	s.Error(err)
}

func (s *PlayerTestSuite) TestPlaysWholeFile() {
	s.Require().NoError(s.player.Play(s.ctx, "g", "voice", s.file, false))

	s.Eventually(func() bool { return s.sink.count() == 3 }, time.Second, 5*time.Millisecond)
	s.Eventually(func() bool { return !s.player.IsPlaying("g") }, time.Second, 5*time.Millisecond)
	s.Equal(s.file, s.player.LastSource("g"))
}

func (s *PlayerTestSuite) TestMissingFile() {
	err := s.player.Play(s.ctx, "g", "voice", filepath.Join(s.T().TempDir(), "none.dca"), false)
	s.Error(err)
	s.False(s.player.IsPlaying("g"))
}

func (s *PlayerTestSuite) TestPauseResumeStop() {
	s.sink.gate = make(chan struct{})
	s.Require().NoError(s.player.Play(s.ctx, "g", "voice", s.file, false))
	s.True(s.player.IsPlaying("g"))
	s.ErrorIs(s.player.Play(s.ctx, "g", "voice", s.file, false), ErrBusy)

	s.Require().NoError(s.player.Pause("g"))
	s.True(s.player.IsPaused("g"))
	s.False(s.player.IsPlaying("g"))
	s.ErrorIs(s.player.Pause("g"), ErrNothingPlaying)

	s.Require().NoError(s.player.Resume("g"))
	s.True(s.player.IsPlaying("g"))

	s.Require().NoError(s.player.Stop("g"))
	s.False(s.player.IsPlaying("g"))
	s.ErrorIs(s.player.Stop("g"), ErrNothingPlaying)
}

func (s *PlayerTestSuite) TestForceReplacesPlayback() {
	s.sink.gate = make(chan struct{})
	s.Require().NoError(s.player.Play(s.ctx, "g", "voice", s.file, false))

	other := filepath.Join(s.T().TempDir(), "other.dca")
	s.Require().NoError(os.WriteFile(other, writeDCA([]byte{1}), 0o644))
	s.Require().NoError(s.player.Play(s.ctx, "g", "voice", other, true))

	s.Equal(other, s.player.LastSource("g"))
	close(s.sink.gate)
	s.Eventually(func() bool { return !s.player.IsPlaying("g") }, time.Second, 5*time.Millisecond)
}
