package listener

import (
	"context"
	"errors"
	"sync"

	"github.com/fadedpez/gamemaster/internal/guard"
	"github.com/samber/mo"
)

// Victory describes a won game or a won channel
type Victory struct {
	Listener  string
	ChannelID string
	Helped    bool
	Round     int
}

// VictoryObserver records victories
type VictoryObserver interface {
	ObserveVictory(ctx context.Context, v Victory)
}

type gamePolicy struct {
	mu           sync.RWMutex
	simpleMode   mo.Option[bool]
	victoryGuard guard.Guard
}

// WithGame gives the listener the victory protocol. An absent simpleMode
// means the game has no simple mode.
func WithGame(simpleMode mo.Option[bool]) Option {
	return func(l *Listener) {
		l.game = &gamePolicy{simpleMode: simpleMode}
	}
}

// IsGame reports whether the listener follows the victory protocol
func (l *Listener) IsGame() bool {
	return l.game != nil
}

// SimpleMode returns the simple mode switch, absent when not applicable
func (l *Listener) SimpleMode() mo.Option[bool] {
	if l.game == nil {
		return mo.None[bool]()
	}
	l.game.mu.RLock()
	defer l.game.mu.RUnlock()
	return l.game.simpleMode
}

// SetSimpleMode switches simple mode. It has no effect on non-game listeners.
func (l *Listener) SetSimpleMode(simple bool) {
	if l.game == nil {
		return
	}
	l.game.mu.Lock()
	defer l.game.mu.Unlock()
	l.game.simpleMode = mo.Some(simple)
}

// IsSimple reports whether simple mode is switched on
func (l *Listener) IsSimple() bool {
	return l.SimpleMode().OrElse(false)
}

// SetVictoryObserver attaches the recorder of victories
func (l *Listener) SetVictoryObserver(o VictoryObserver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = o
}

func (l *Listener) observe(ctx context.Context, v Victory) {
	l.mu.RLock()
	o := l.observer
	l.mu.RUnlock()
	if o != nil {
		v.Listener = l.name
		o.ObserveVictory(ctx, v)
	}
}

// Victory ends the game after a win by the players. It is a no-op while
// another victory is in progress. The listener is stopped even if the
// victory hook fails.
func (l *Listener) Victory(ctx context.Context) error {
	if l.game == nil {
		return nil
	}
	ran, err := l.game.victoryGuard.Do(func() error {
		var hookErr error
		if l.hooks.Victory != nil {
			hookErr = l.hooks.Victory(ctx)
		}
		l.observe(ctx, Victory{})
		_, stopErr := l.Stop(ctx)
		return errors.Join(hookErr, stopErr)
	})
	if !ran {
		l.log.Debug("victory already in progress")
	}
	return err
}

// HelpedVictory ends the game on the game master's order. The victory hook
// only runs if the game is active; the listener is always stopped.
func (l *Listener) HelpedVictory(ctx context.Context) error {
	if l.game == nil {
		return nil
	}
	ran, err := l.game.victoryGuard.Do(func() error {
		if l.scope != nil {
			return l.channelsHelpedVictory(ctx)
		}
		var hookErr error
		if l.Active() {
			hook := l.hooks.HelpedVictory
			if hook == nil {
				hook = l.hooks.Victory
			}
			if hook != nil {
				hookErr = hook(ctx)
			}
			l.observe(ctx, Victory{Helped: true})
		}
		_, stopErr := l.Stop(ctx)
		return errors.Join(hookErr, stopErr)
	})
	if !ran {
		l.log.Debug("victory already in progress")
	}
	return err
}

func (l *Listener) channelsHelpedVictory(ctx context.Context) error {
	var errs []error
	for _, s := range l.scope.statuses.all() {
		errs = append(errs, l.channelHelpedVictory(ctx, s))
	}
	_, err := l.Stop(ctx)
	errs = append(errs, err)
	return errors.Join(errs...)
}
