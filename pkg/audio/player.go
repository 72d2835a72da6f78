// Package audio plays DCA-framed opus files in voice channels.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
)

// Player plays audio sources in a guild's voice channel, one at a time.
type Player interface {
	Play(ctx context.Context, guildID, channelID, source string, force bool) error
	Pause(guildID string) error
	Resume(guildID string) error
	Stop(guildID string) error
	IsPlaying(guildID string) bool
	IsPaused(guildID string) bool
	LastSource(guildID string) string
}

// ErrBusy is returned by Play without force while a source is playing
var ErrBusy = errors.New("already playing")

// ErrNothingPlaying is returned by Pause, Resume and Stop when idle
var ErrNothingPlaying = errors.New("nothing is playing")

// VoiceJoiner joins a voice channel
type VoiceJoiner interface {
	ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

// FrameSink receives opus frames. A discordgo voice connection is adapted
// through its OpusSend channel.
type FrameSink interface {
	Speaking(bool) error
	Send(ctx context.Context, frame []byte) error
}

type voiceSink struct {
	vc *discordgo.VoiceConnection
}

func (v voiceSink) Speaking(b bool) error { return v.vc.Speaking(b) }

func (v voiceSink) Send(ctx context.Context, frame []byte) error {
	select {
	case v.vc.OpusSend <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type playback struct {
	cancel  context.CancelFunc
	done    chan struct{}
	source  string
	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
}

// VoicePlayer streams DCA files, local or over HTTP, to voice connections.
type VoicePlayer struct {
	joiner VoiceJoiner
	client *http.Client
	log    *logging.Logger
	sink   func(guildID, channelID string) (FrameSink, error)

	mu      sync.Mutex
	current map[string]*playback
	last    map[string]string
}

var _ Player = (*VoicePlayer)(nil)

// NewVoicePlayer creates a player joining voice channels through joiner
func NewVoicePlayer(joiner VoiceJoiner, log *logging.Logger) *VoicePlayer {
	if log == nil {
		log = logging.Default
	}
	p := &VoicePlayer{
		joiner:  joiner,
		client:  http.DefaultClient,
		log:     log.With("audio"),
		current: map[string]*playback{},
		last:    map[string]string{},
	}
	p.sink = p.join
	return p
}

func (p *VoicePlayer) join(guildID, channelID string) (FrameSink, error) {
	vc, err := p.joiner.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, types.FromDiscord(err, "join voice channel")
	}
	return voiceSink{vc: vc}, nil
}

// Play starts source in channelID. With force the current playback of the
// guild is stopped first.
func (p *VoicePlayer) Play(ctx context.Context, guildID, channelID, source string, force bool) error {
	if _, busy := p.playing(guildID); busy {
		if !force {
			return ErrBusy
		}
		_ = p.Stop(guildID)
	}

	frames, err := p.open(ctx, source)
	if err != nil {
		return err
	}
	sink, err := p.sink(guildID, channelID)
	if err != nil {
		frames.Close()
		return err
	}

	playCtx, cancel := context.WithCancel(context.Background())
	pb := &playback{cancel: cancel, done: make(chan struct{}), source: source, resumed: make(chan struct{})}
	p.mu.Lock()
	p.current[guildID] = pb
	p.last[guildID] = source
	p.mu.Unlock()

	go func() {
		defer close(pb.done)
		defer frames.Close()
		defer p.finish(guildID, pb)
		if err := p.stream(playCtx, pb, sink, frames); err != nil && !errors.Is(err, context.Canceled) {
			p.log.Warn("playing %s: %v", source, err)
		}
	}()
	return nil
}

func (p *VoicePlayer) finish(guildID string, pb *playback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current[guildID] == pb {
		delete(p.current, guildID)
	}
}

func (p *VoicePlayer) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, types.WrapError(types.ErrInvalidArgument, "invalid audio url", err)
		}
		res, err := p.client.Do(req)
		if err != nil {
			return nil, types.WrapError(types.ErrNetworkError, "fetching audio", err)
		}
		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			return nil, types.NewGameError(types.ErrNetworkError, fmt.Sprintf("fetching audio: status %d", res.StatusCode))
		}
		return res.Body, nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, types.WrapError(types.ErrNotFound, "opening audio file", err)
	}
	return f, nil
}

// ReadFrame reads one DCA frame: a little-endian int16 length followed by
// that many opus bytes.
func ReadFrame(r io.Reader) ([]byte, error) {
	var size int16
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid frame size %d", size)
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func (p *VoicePlayer) stream(ctx context.Context, pb *playback, sink FrameSink, r io.Reader) error {
	if err := sink.Speaking(true); err != nil {
		return err
	}
	defer func() { _ = sink.Speaking(false) }()

	for {
		if err := pb.waitResumed(ctx); err != nil {
			return err
		}
		frame, err := ReadFrame(r)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.Send(ctx, frame); err != nil {
			return err
		}
	}
}

func (pb *playback) waitResumed(ctx context.Context) error {
	pb.mu.Lock()
	paused, resumed := pb.paused, pb.resumed
	pb.mu.Unlock()
	if !paused {
		return ctx.Err()
	}
	select {
	case <-resumed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *VoicePlayer) playing(guildID string) (*playback, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pb, ok := p.current[guildID]
	return pb, ok
}

// Pause suspends the current playback
func (p *VoicePlayer) Pause(guildID string) error {
	pb, ok := p.playing(guildID)
	if !ok {
		return ErrNothingPlaying
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.paused {
		return ErrNothingPlaying
	}
	pb.paused = true
	pb.resumed = make(chan struct{})
	return nil
}

// Resume continues a paused playback
func (p *VoicePlayer) Resume(guildID string) error {
	pb, ok := p.playing(guildID)
	if !ok {
		return ErrNothingPlaying
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if !pb.paused {
		return ErrNothingPlaying
	}
	pb.paused = false
	close(pb.resumed)
	return nil
}

// Stop ends the current playback and waits for it to release the connection
func (p *VoicePlayer) Stop(guildID string) error {
	pb, ok := p.playing(guildID)
	if !ok {
		return ErrNothingPlaying
	}
	pb.cancel()
	<-pb.done
	return nil
}

// IsPlaying reports whether a source is playing and not paused
func (p *VoicePlayer) IsPlaying(guildID string) bool {
	pb, ok := p.playing(guildID)
	if !ok {
		return false
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return !pb.paused
}

// IsPaused reports whether the current playback is paused
func (p *VoicePlayer) IsPaused(guildID string) bool {
	pb, ok := p.playing(guildID)
	if !ok {
		return false
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.paused
}

// LastSource returns the last source started in the guild
func (p *VoicePlayer) LastSource(guildID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last[guildID]
}
