package discord

import (
	"sync"

	"github.com/fadedpez/gamemaster/internal/logging"
)

// DefaultLogQueue is how many lines a LogChannel holds before dropping
const DefaultLogQueue = 100

// LogChannel posts log lines into a text channel. It implements
// logging.Sink: lines are queued and dropped while the queue is full.
type LogChannel struct {
	session   SessionHandler
	channelID string
	log       *logging.Logger

	mu      sync.Mutex
	closed  bool
	dropped int
	queue   chan string
	done    chan struct{}
}

var _ logging.Sink = (*LogChannel)(nil)

// NewLogChannel starts posting to channelID. Failures to post are logged
// through an unmirrored copy of log.
func NewLogChannel(s SessionHandler, channelID string, size int, log *logging.Logger) *LogChannel {
	if size < 1 {
		size = DefaultLogQueue
	}
	if log == nil {
		log = logging.Default
	}
	c := &LogChannel{
		session:   s,
		channelID: channelID,
		log:       log.Unmirrored(),
		queue:     make(chan string, size),
		done:      make(chan struct{}),
	}
	go c.run()
	return c
}

// ChannelID returns the channel lines are posted to
func (c *LogChannel) ChannelID() string { return c.channelID }

// Write queues line
func (c *LogChannel) Write(level logging.Level, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.queue <- "**" + level.String() + "** ```" + line + "```":
	default:
		c.dropped++
	}
}

// Dropped returns how many lines were lost to a full queue
func (c *LogChannel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close posts the queued lines and stops
func (c *LogChannel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()
	<-c.done
}

func (c *LogChannel) run() {
	defer close(c.done)
	for line := range c.queue {
		if _, err := LongSend(c.session, c.channelID, line); err != nil {
			c.log.Debug("posting log line in %s: %v", c.channelID, err)
		}
	}
}
