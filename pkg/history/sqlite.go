package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/db/migrations"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements the Repository interface using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at dbPath and applies migrations
func NewSQLiteRepository(ctx context.Context, dbPath string, log *logging.Logger) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := migrations.NewMigrator(db, migrations.Embedded(), log).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// SaveVictory inserts a victory
func (r *SQLiteRepository) SaveVictory(ctx context.Context, record *Record) error {
	if err := validRecord(record); err != nil {
		return err
	}
	query := `
		INSERT INTO victories (id, guild_id, listener, channel_id, helped, round, won_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.GuildID, record.Listener, record.ChannelID,
		record.Helped, record.Round, record.WonAt.UTC())
	if err != nil {
		return types.WrapError(types.ErrDatabaseError, "error saving victory", err)
	}
	return nil
}

// ListVictories returns the most recent victories first
func (r *SQLiteRepository) ListVictories(ctx context.Context, guildID, listener string, limit int) ([]*Record, error) {
	query := `
		SELECT id, guild_id, listener, channel_id, helped, round, won_at
		FROM victories
		WHERE guild_id = ? AND (? = '' OR listener = ?)
		ORDER BY won_at DESC`
	args := []interface{}{guildID, listener, listener}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "error listing victories", err)
	}
	defer rows.Close()

	results := []*Record{}
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.ID, &rec.GuildID, &rec.Listener, &rec.ChannelID, &rec.Helped, &rec.Round, &rec.WonAt); err != nil {
			return nil, types.WrapError(types.ErrDatabaseError, "error scanning victory", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Prune deletes victories older than before
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM victories WHERE won_at < ?`, before.UTC())
	if err != nil {
		return 0, types.WrapError(types.ErrDatabaseError, "error pruning victories", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, types.WrapError(types.ErrDatabaseError, "error pruning victories", err)
	}
	return int(n), nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
