package listener

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/samber/mo"
)

type channelScope struct {
	maxPlays mo.Option[int]
	statuses channelStatuses

	mu      sync.Mutex
	handles map[string]*ChannelHandle
}

// WithChannelScope tracks the game independently in each allowed channel.
// maxPlays caps the wins per channel; absent or zero means unlimited.
// resolveName gives the display name of a channel and may be nil.
func WithChannelScope(maxPlays mo.Option[int], resolveName func(channelID string) string) Option {
	return func(l *Listener) {
		l.scope = &channelScope{
			maxPlays: maxPlays,
			statuses: channelStatuses{
				resolve:  resolveName,
				statuses: map[string]*ChannelGameStatus{},
			},
			handles: map[string]*ChannelHandle{},
		}
	}
}

// HasChannelScope reports whether the game is tracked per channel
func (l *Listener) HasChannelScope() bool {
	return l.scope != nil
}

// ChannelsList returns the channels the game is played in
func (l *Listener) ChannelsList() []string {
	return l.AllowedChannelIDs()
}

// ChannelStatus returns the status of channelID, creating it on first access
func (l *Listener) ChannelStatus(channelID string) *ChannelGameStatus {
	if l.scope == nil {
		return nil
	}
	return l.scope.statuses.get(channelID)
}

// ChannelStatuses returns every status created so far
func (l *Listener) ChannelStatuses() []*ChannelGameStatus {
	if l.scope == nil {
		return nil
	}
	return l.scope.statuses.all()
}

func (l *Listener) resetAllowedChannels() {
	for _, id := range l.ChannelsList() {
		l.scope.statuses.get(id).Clear()
	}
}

// playable returns the status of a channel the game may be played in.
// Channels rejected by the filter are never tracked.
func (l *Listener) playable(channelID string) (*ChannelGameStatus, bool) {
	if s, ok := l.scope.statuses.lookup(channelID); ok {
		return s, true
	}
	if !l.CheckChannel(channelID) {
		return nil, false
	}
	return l.scope.statuses.get(channelID), true
}

func (l *Listener) notAllowed(channelID string) error {
	l.log.Warn("channel %s is not allowed", channelID)
	return types.NewGameError(types.ErrChannelNotAllowed, fmt.Sprintf("%s cannot be played here", l.name))
}

// ResetChannelStats rewinds the play counter of one channel
func (l *Listener) ResetChannelStats(channelID string) {
	if l.scope == nil {
		return
	}
	s, ok := l.playable(channelID)
	if !ok {
		l.log.Warn("channel %s is not allowed", channelID)
		return
	}
	s.Reset()
	l.log.Info("channel %s reset", channelID)
}

func (l *Listener) capReached(s *ChannelGameStatus) bool {
	max, ok := l.scope.maxPlays.Get()
	return ok && max > 0 && s.NumberOfGames() >= max
}

// StartChannel starts the game in one channel. The game itself must be
// active, the channel must pass the filter and be under the play cap.
func (l *Listener) StartChannel(ctx context.Context, channelID string) (bool, error) {
	if l.scope == nil {
		return false, types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("%s is not played per channel", l.name))
	}
	if !l.Active() {
		l.log.Error("cannot start channel %s while the game is stopped", channelID)
		return false, types.NewGameError(types.ErrListenerInactive, fmt.Sprintf("%s is not started", l.name))
	}
	s, ok := l.playable(channelID)
	if !ok {
		return false, l.notAllowed(channelID)
	}
	if !s.initGuard.TryAcquire() {
		l.log.Info("already starting in channel %s", channelID)
		return false, nil
	}
	defer s.initGuard.Release()

	if l.capReached(s) {
		l.log.Warn("no game left in channel %s", channelID)
		return false, types.NewGameError(types.ErrPlayLimitReached, fmt.Sprintf("%s was played enough times here", l.name))
	}
	if s.Active() {
		l.log.Info("already started in channel %s", channelID)
		return false, nil
	}

	ok = true
	var err error
	if l.hooks.InitChannel != nil {
		ok, err = l.hooks.InitChannel(ctx, s)
	} else {
		s.Clear()
	}
	if err != nil || !ok {
		return false, err
	}
	s.setActive(true)
	l.log.Debug("started in channel %s", channelID)
	if n := l.currentNotifier(); n != nil {
		n.UpdateListeners(ctx)
	}
	return true, nil
}

// StopChannel stops the game in one channel. It returns false for a channel
// that was never tracked.
func (l *Listener) StopChannel(ctx context.Context, channelID string) bool {
	if l.scope == nil {
		return false
	}
	s, ok := l.scope.statuses.lookup(channelID)
	if !ok {
		return false
	}
	s.setActive(false)
	if n := l.currentNotifier(); n != nil {
		n.UpdateListeners(ctx)
	}
	return true
}

// ChannelVictory records a win in one channel and ends the whole game when
// every tracked channel has been won the same number of times.
func (l *Listener) ChannelVictory(ctx context.Context, channelID string) error {
	if l.scope == nil {
		return nil
	}
	s, ok := l.playable(channelID)
	if !ok {
		return l.notAllowed(channelID)
	}
	var global bool
	ran, err := s.victoryGuard.Do(func() error {
		var hookErr error
		if l.hooks.ChannelVictory != nil {
			hookErr = l.hooks.ChannelVictory(ctx, s)
		}
		if s.Active() {
			s.increment()
			l.observe(ctx, Victory{ChannelID: channelID, Round: s.NumberOfGames()})
		}
		l.StopChannel(ctx, channelID)
		global = l.globalVictory()
		return hookErr
	})
	if !ran {
		l.log.Debug("victory already in progress in channel %s", channelID)
		return nil
	}
	if global {
		return errors.Join(err, l.Victory(ctx))
	}
	return err
}

// ChannelHelpedVictory ends the game in one channel on the game master's
// order. The hook runs and the win counts only if the channel is active.
func (l *Listener) ChannelHelpedVictory(ctx context.Context, channelID string) error {
	if l.scope == nil {
		return nil
	}
	s, ok := l.playable(channelID)
	if !ok {
		return l.notAllowed(channelID)
	}
	return l.channelHelpedVictory(ctx, s)
}

func (l *Listener) channelHelpedVictory(ctx context.Context, s *ChannelGameStatus) error {
	ran, err := s.victoryGuard.Do(func() error {
		var hookErr error
		if s.Active() {
			hook := l.hooks.ChannelHelpedVictory
			if hook == nil {
				hook = l.hooks.ChannelVictory
			}
			if hook != nil {
				hookErr = hook(ctx, s)
			}
			s.increment()
			l.observe(ctx, Victory{ChannelID: s.ChannelID(), Helped: true, Round: s.NumberOfGames()})
		}
		l.StopChannel(ctx, s.ChannelID())
		return hookErr
	})
	if !ran {
		l.log.Debug("victory already in progress in channel %s", s.ChannelID())
	}
	return err
}

// globalVictory holds when the total of channel wins is a positive multiple
// of the number of tracked channels.
func (l *Listener) globalVictory() bool {
	statuses := l.scope.statuses.all()
	if len(statuses) == 0 {
		return false
	}
	total := 0
	for _, s := range statuses {
		total += s.NumberOfGames()
	}
	return total > 0 && total%len(statuses) == 0
}

// ChannelHandle returns the controllable facade of one channel
func (l *Listener) ChannelHandle(channelID string) *ChannelHandle {
	if l.scope == nil {
		return nil
	}
	l.scope.mu.Lock()
	defer l.scope.mu.Unlock()
	if h, ok := l.scope.handles[channelID]; ok {
		return h
	}
	h := &ChannelHandle{parent: l, channelID: channelID}
	l.scope.handles[channelID] = h
	return h
}
