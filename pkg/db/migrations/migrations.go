package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fadedpez/gamemaster/internal/logging"
)

//go:embed sql/*.sql
var embedded embed.FS

// Embedded returns the migrations shipped with the binary
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migration represents a database migration
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// Migrator handles database migrations
type Migrator struct {
	db   *sql.DB
	fsys fs.FS
	log  *logging.Logger
}

// NewMigrator creates a migrator reading .sql files at the root of fsys
func NewMigrator(db *sql.DB, fsys fs.FS, log *logging.Logger) *Migrator {
	if log == nil {
		log = logging.Default
	}
	return &Migrator{
		db:   db,
		fsys: fsys,
		log:  log.With("migrations"),
	}
}

// Initialize creates the migrations table if it doesn't exist
func (m *Migrator) Initialize(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			version TEXT NOT NULL,
			description TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// AppliedMigrations returns the set of already applied versions
func (m *Migrator) AppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// LoadMigrations loads all migration files sorted by version
func (m *Migrator) LoadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, ".")
	if err != nil {
		return nil, err
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(m.fsys, entry.Name())
		if err != nil {
			return nil, err
		}

		// "001_initial_schema.sql" is version 001, description "initial schema"
		parts := strings.SplitN(strings.TrimSuffix(path.Base(entry.Name()), ".sql"), "_", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid migration filename: %s", entry.Name())
		}

		migrations = append(migrations, Migration{
			Version:     parts[0],
			Description: strings.ReplaceAll(parts[1], "_", " "),
			SQL:         string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// ApplyMigration applies a single migration in a transaction
func (m *Migrator) ApplyMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, migration.SQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("error applying migration %s: %w", migration.Version, err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO migrations (version, description) VALUES (?, ?)",
		migration.Version,
		migration.Description,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error recording migration %s: %w", migration.Version, err)
	}

	return tx.Commit()
}

// MigrateUp applies all pending migrations and returns how many ran
func (m *Migrator) MigrateUp(ctx context.Context) (int, error) {
	if err := m.Initialize(ctx); err != nil {
		return 0, err
	}

	applied, err := m.AppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	migrations, err := m.LoadMigrations()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, migration := range migrations {
		if applied[migration.Version] {
			m.log.Debug("migration %s already applied, skipping", migration.Version)
			continue
		}

		m.log.Info("applying migration %s: %s", migration.Version, migration.Description)
		if err := m.ApplyMigration(ctx, migration); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// CreateMigration writes the next numbered migration file into dir
func CreateMigration(dir, description string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	existing, err := NewMigrator(nil, os.DirFS(dir), nil).LoadMigrations()
	if err != nil {
		return "", err
	}

	nextVersion := fmt.Sprintf("%03d", len(existing)+1)
	fileName := fmt.Sprintf("%s_%s.sql", nextVersion, strings.ReplaceAll(description, " ", "_"))
	filePath := filepath.Join(dir, fileName)

	content := fmt.Sprintf("-- Migration: %s\n-- Created: %s\n\n", description, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", err
	}

	return filePath, nil
}
