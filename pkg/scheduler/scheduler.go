// Package scheduler runs periodic background tasks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/gamemaster/internal/logging"
)

// Task represents a scheduled task
type Task struct {
	Name     string
	Interval time.Duration
	Fn       func(context.Context) error
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	tasks   []*Task
	running bool
	mutex   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *logging.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Default
	}
	return &Scheduler{
		tasks: make([]*Task, 0),
		log:   log.With("scheduler"),
	}
}

// AddTask adds a task to the scheduler. Tasks with a non-positive interval are ignored.
func (s *Scheduler) AddTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if interval <= 0 {
		s.log.Warn("task %s has no interval, not scheduled", name)
		return
	}
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
}

// Tasks returns the names of the scheduled tasks
func (s *Scheduler) Tasks() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	names := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		names = append(names, t.Name)
	}
	return names
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(ctx, task)
	}

	s.log.Info("scheduler started with %d tasks", len(s.tasks))
}

// Stop stops the scheduler and waits for running tasks to return
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mutex.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, task *Task) {
	if err := task.Fn(ctx); err != nil {
		s.log.Warn("error running task %s: %v", task.Name, err)
	}
}

// runTask runs a task immediately, then at the specified interval
func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	defer s.wg.Done()
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	s.log.Debug("running task %s on startup", task.Name)
	s.run(ctx, task)

	for {
		select {
		case <-ticker.C:
			s.log.Debug("running scheduled task: %s", task.Name)
			s.run(ctx, task)
		case <-ctx.Done():
			s.log.Debug("task %s stopped", task.Name)
			return
		}
	}
}
