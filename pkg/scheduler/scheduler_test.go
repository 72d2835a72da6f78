package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/stretchr/testify/suite"
)

type fakeSite struct {
	mu        sync.Mutex
	enabled   bool
	pingErr   error
	available []bool
}

func (f *fakeSite) Enabled() bool { return f.enabled }

func (f *fakeSite) Ping(context.Context) error { return f.pingErr }

func (f *fakeSite) SetAvailability(_ context.Context, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = append(f.available, available)
	return nil
}

type fakePruner struct {
	before time.Time
}

func (f *fakePruner) Prune(_ context.Context, before time.Time) (int, error) {
	f.before = before
	return 1, nil
}

type SchedulerTestSuite struct {
	suite.Suite
	ctx       context.Context
	out       *strings.Builder
	scheduler *Scheduler
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (s *SchedulerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.out = &strings.Builder{}
	s.scheduler = NewScheduler(logging.NewLoggerTo(&lockedWriter{b: s.out}, logging.DEBUG))
}

type lockedWriter struct {
	mu sync.Mutex
	b  *strings.Builder
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (s *SchedulerTestSuite) TestRunsImmediatelyAndRepeats() {
	var runs int32
	s.scheduler.AddTask("count", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	s.scheduler.Start(s.ctx)
	s.Eventually(func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	s.scheduler.Stop()

	after := atomic.LoadInt32(&runs)
	time.Sleep(30 * time.Millisecond)
	s.Equal(after, atomic.LoadInt32(&runs))
}

func (s *SchedulerTestSuite) TestTaskErrorsDoNotStopScheduling() {
	var runs int32
	s.scheduler.AddTask("failing", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("boom")
	})

	s.scheduler.Start(s.ctx)
	s.Eventually(func() bool { return atomic.LoadInt32(&runs) >= 2 }, time.Second, 5*time.Millisecond)
	s.scheduler.Stop()
}

func (s *SchedulerTestSuite) TestZeroIntervalIgnored() {
	s.scheduler.AddTask("never", 0, func(context.Context) error { return nil })

	s.Empty(s.scheduler.Tasks())
}

func (s *SchedulerTestSuite) TestStopWithoutStart() {
	s.NotPanics(s.scheduler.Stop)
}

func (s *SchedulerTestSuite) TestHeartbeat() {
	site := &fakeSite{enabled: true}

	s.Require().NoError(Heartbeat(site, func() bool { return true })(s.ctx))
	s.Require().NoError(Heartbeat(site, func() bool { return false })(s.ctx))

	s.Equal([]bool{true, false}, site.available)
}

func (s *SchedulerTestSuite) TestHeartbeatSkipsAvailabilityWhenUnreachable() {
	site := &fakeSite{enabled: true, pingErr: errors.New("down")}

	s.Error(Heartbeat(site, func() bool { return true })(s.ctx))
	s.Empty(site.available)
}

func (s *SchedulerTestSuite) TestHeartbeatDisabledSite() {
	site := &fakeSite{}

	s.NoError(Heartbeat(site, func() bool { return true })(s.ctx))
	s.Empty(site.available)
}

func (s *SchedulerTestSuite) TestPruneHistory() {
	pruner := &fakePruner{}
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(PruneHistory(pruner, 30*24*time.Hour, func() time.Time { return now })(s.ctx))

	s.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), pruner.before)
}

func (s *SchedulerTestSuite) TestAddMaintenance() {
	s.scheduler.AddMaintenance(&fakeSite{}, func() bool { return true }, time.Minute, &fakePruner{}, 24*time.Hour)

	s.Equal([]string{"heartbeat", "history_prune"}, s.scheduler.Tasks())
}
