package listener

import (
	"sync"

	"github.com/fadedpez/gamemaster/internal/guard"
)

// ChannelGameStatus is the state of one channel-scoped game in one channel.
// Clear keeps the play counter and data; Reset also zeroes the counter.
type ChannelGameStatus struct {
	mu            sync.RWMutex
	channelID     string
	channelName   string
	resolve       func(channelID string) string
	active        bool
	numberOfGames int
	data          map[string]interface{}

	initGuard    guard.Guard
	victoryGuard guard.Guard
}

func newChannelGameStatus(channelID string, resolve func(string) string) *ChannelGameStatus {
	s := &ChannelGameStatus{
		channelID: channelID,
		resolve:   resolve,
		data:      map[string]interface{}{},
	}
	s.refreshChannel()
	return s
}

func (s *ChannelGameStatus) refreshChannel() {
	if s.resolve != nil {
		s.channelName = s.resolve(s.channelID)
	}
}

// ChannelID returns the channel this status tracks
func (s *ChannelGameStatus) ChannelID() string {
	return s.channelID
}

// ChannelName returns the channel name resolved at the last clear
func (s *ChannelGameStatus) ChannelName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelName
}

// Active reports whether the channel's game is running
func (s *ChannelGameStatus) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *ChannelGameStatus) setActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// NumberOfGames returns how many times the channel was won
func (s *ChannelGameStatus) NumberOfGames() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numberOfGames
}

func (s *ChannelGameStatus) increment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numberOfGames++
}

// Clear deactivates the channel and re-resolves its reference
func (s *ChannelGameStatus) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshChannel()
	s.active = false
}

// Reset clears the channel and zeroes its play counter
func (s *ChannelGameStatus) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshChannel()
	s.active = false
	s.numberOfGames = 0
}

// Data returns the value stored under key
func (s *ChannelGameStatus) Data(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// SetData stores value under key
func (s *ChannelGameStatus) SetData(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// SeedData stores value under key unless the key is already present, and
// returns the stored value.
func (s *ChannelGameStatus) SeedData(key string, value interface{}) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v
	}
	s.data[key] = value
	return value
}

// channelStatuses creates statuses lazily and never drops them.
type channelStatuses struct {
	mu       sync.Mutex
	resolve  func(string) string
	statuses map[string]*ChannelGameStatus
	order    []string
}

func (c *channelStatuses) get(channelID string) *ChannelGameStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.statuses[channelID]; ok {
		return s
	}
	s := newChannelGameStatus(channelID, c.resolve)
	c.statuses[channelID] = s
	c.order = append(c.order, channelID)
	return s
}

func (c *channelStatuses) lookup(channelID string) (*ChannelGameStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.statuses[channelID]
	return s, ok
}

func (c *channelStatuses) all() []*ChannelGameStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ChannelGameStatus, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.statuses[id])
	}
	return out
}
