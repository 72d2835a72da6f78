package history

import (
	"context"
	"time"

	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/listener"
	"github.com/google/uuid"
)

// Recorder saves the victories of one guild's listeners
type Recorder struct {
	repo    Repository
	guildID string
	log     *logging.Logger
	now     func() time.Time
}

var _ listener.VictoryObserver = (*Recorder)(nil)

// NewRecorder creates a recorder for guildID
func NewRecorder(repo Repository, guildID string, log *logging.Logger) *Recorder {
	if log == nil {
		log = logging.Default
	}
	return &Recorder{
		repo:    repo,
		guildID: guildID,
		log:     log.With("history"),
		now:     time.Now,
	}
}

// ObserveVictory stores v. Failures are logged, a victory is never undone.
func (r *Recorder) ObserveVictory(ctx context.Context, v listener.Victory) {
	rec := &Record{
		ID:        uuid.NewString(),
		GuildID:   r.guildID,
		Listener:  v.Listener,
		ChannelID: v.ChannelID,
		Helped:    v.Helped,
		Round:     v.Round,
		WonAt:     r.now(),
	}
	if err := r.repo.SaveVictory(ctx, rec); err != nil {
		r.log.Error("recording victory of %s: %v", v.Listener, err)
		return
	}
	r.log.Debug("victory of %s recorded", v.Listener)
}

// Victories lists the recent victories of a listener of the guild
func (r *Recorder) Victories(ctx context.Context, listenerName string, limit int) ([]*Record, error) {
	return r.repo.ListVictories(ctx, r.guildID, listenerName, limit)
}
