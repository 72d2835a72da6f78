package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/db/migrations"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	// Define command-line flags
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	// Create command options
	migrationsDir := createCmd.String("dir", "pkg/db/migrations/sql", "Directory to store migrations")

	// Migrate command options
	dbPath := migrateCmd.String("db", "data/history.db", "Path to SQLite database")
	migrateDir := migrateCmd.String("dir", "", "Directory containing migrations (default: the embedded ones)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		if createCmd.NArg() < 1 {
			fmt.Println("Error: Missing migration description")
			createCmd.Usage()
			os.Exit(1)
		}
		createNewMigration(*migrationsDir, createCmd.Arg(0))

	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		applyMigrations(*dbPath, *migrateDir)

	case "help":
		printUsage()

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/migration create DESCRIPTION  - Create a new migration")
	fmt.Println("  go run ./cmd/migration migrate             - Apply pending migrations")
	fmt.Println("  go run ./cmd/migration help                - Show this help")
	fmt.Println("\nExamples:")
	fmt.Println("  go run ./cmd/migration create \"add team column\"")
	fmt.Println("  go run ./cmd/migration migrate -db data/history.db")
}

func createNewMigration(migrationsDir, description string) {
	filePath, err := migrations.CreateMigration(migrationsDir, description)
	if err != nil {
		log.Fatalf("Error creating migration: %v", err)
	}

	addSQLiteExamples(filePath)

	fmt.Printf("Created migration file: %s\n", filePath)
	fmt.Println("Edit this file to add your database schema changes.")
}

func addSQLiteExamples(filePath string) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("Error reading migration file: %v", err)
	}

	examples := `
-- SQLite Examples:

-- Add a column to the victories table
-- ALTER TABLE victories ADD COLUMN team INTEGER DEFAULT 0;

-- Create an index
-- CREATE INDEX IF NOT EXISTS idx_victories_channel ON victories(channel_id);

-- Your migration SQL goes below this line:

`
	if err := os.WriteFile(filePath, append(content, examples...), 0644); err != nil {
		log.Fatalf("Error writing to migration file: %v", err)
	}
}

func applyMigrations(dbPath, migrationsDir string) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Error creating database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	var source fs.FS = migrations.Embedded()
	if migrationsDir != "" {
		source = os.DirFS(migrationsDir)
	}

	applied, err := migrations.NewMigrator(db, source, logging.Default).MigrateUp(context.Background())
	if err != nil {
		log.Fatalf("Error applying migrations: %v", err)
	}

	fmt.Printf("%d migration(s) applied successfully!\n", applied)
}
