package scheduler

import (
	"context"
	"errors"
	"time"
)

// Website is the part of the website client the heartbeat uses
type Website interface {
	Enabled() bool
	Ping(ctx context.Context) error
	SetAvailability(ctx context.Context, available bool) error
}

// Pruner deletes old victories
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int, error)
}

// Heartbeat pings the website and publishes whether a guild can still be admitted
func Heartbeat(site Website, available func() bool) func(context.Context) error {
	return func(ctx context.Context) error {
		if !site.Enabled() {
			return nil
		}
		if err := site.Ping(ctx); err != nil {
			return err
		}
		return site.SetAvailability(ctx, available())
	}
}

// PruneHistory deletes victories older than retention
func PruneHistory(p Pruner, retention time.Duration, now func() time.Time) func(context.Context) error {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		if retention <= 0 {
			return errors.New("history retention must be positive")
		}
		_, err := p.Prune(ctx, now().Add(-retention))
		return err
	}
}

// AddMaintenance schedules the heartbeat and history_prune tasks
func (s *Scheduler) AddMaintenance(site Website, available func() bool, heartbeat time.Duration, p Pruner, retention time.Duration) {
	if site != nil {
		s.AddTask("heartbeat", heartbeat, Heartbeat(site, available))
	}
	if p != nil && retention > 0 {
		interval := retention / 30
		if interval < time.Hour {
			interval = time.Hour
		}
		s.AddTask("history_prune", interval, PruneHistory(p, retention, nil))
	}
}
