// Package history stores the victories of the games run in each guild.
package history

import (
	"context"
	"time"

	"github.com/fadedpez/gamemaster/internal/types"
)

// Record is one won game or won channel
type Record struct {
	ID        string    `json:"id"`
	GuildID   string    `json:"guild_id"`
	Listener  string    `json:"listener"`
	ChannelID string    `json:"channel_id,omitempty"`
	Helped    bool      `json:"helped"`
	Round     int       `json:"round"`
	WonAt     time.Time `json:"won_at"`
}

// Repository defines storage operations for victories
type Repository interface {
	SaveVictory(ctx context.Context, record *Record) error
	// ListVictories returns the most recent victories first. An empty
	// listener matches every listener of the guild.
	ListVictories(ctx context.Context, guildID, listener string, limit int) ([]*Record, error)
	// Prune deletes victories older than before and returns how many were removed
	Prune(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// Storage types
const (
	StorageMemory        = "memory"
	StorageSQLite        = "sqlite"
	StorageElasticsearch = "elasticsearch"
)

// Options selects and configures a repository
type Options struct {
	Type          string
	SQLitePath    string
	Elasticsearch ElasticsearchConfig
}

// Open creates the repository described by opts
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch opts.Type {
	case "", StorageMemory:
		return NewMemoryRepository(), nil
	case StorageSQLite:
		return NewSQLiteRepository(ctx, opts.SQLitePath, nil)
	case StorageElasticsearch:
		return NewElasticsearchRepository(ctx, opts.Elasticsearch)
	default:
		return nil, types.NewGameError(types.ErrInvalidConfiguration, "unknown storage type "+opts.Type)
	}
}

func validRecord(record *Record) error {
	if record == nil || record.ID == "" || record.GuildID == "" || record.Listener == "" {
		return types.NewGameError(types.ErrInvalidArgument, "victory record needs an id, a guild and a listener")
	}
	return nil
}
