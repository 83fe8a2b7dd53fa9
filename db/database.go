package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"melodex/config"
	"melodex/logger"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var DB *sql.DB

// ConnectDB opens the SQLite database file, creating its directory if needed.
func ConnectDB(cfg *config.Config) error {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// busy_timeout keeps concurrent writers from failing immediately with
	// SQLITE_BUSY under the request-per-goroutine model.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", cfg.DBPath)

	var err error
	DB, err = sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database", logger.String("path", cfg.DBPath))
	return nil
}

// InitDB initializes the database schema. All statements are idempotent so
// the migration can run on every startup.
func InitDB() error {
	if err := CreateSchema(DB); err != nil {
		return err
	}
	logger.Info("Database initialization completed")
	return nil
}

// CreateSchema applies the schema to the given connection. Split out from
// InitDB so tests can migrate their own temporary databases.
func CreateSchema(conn *sql.DB) error {
	if err := createTracksTable(conn); err != nil {
		return err
	}
	return createUsersTable(conn)
}

func createTracksTable(conn *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		artist TEXT NOT NULL,
		title TEXT NOT NULL,
		album TEXT NOT NULL DEFAULT '',
		genre TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		duration INTEGER NOT NULL DEFAULT 0,
		bitrate INTEGER NOT NULL DEFAULT 0,
		file_path TEXT NOT NULL UNIQUE,
		file_size INTEGER NOT NULL DEFAULT 0,
		format TEXT NOT NULL DEFAULT '',
		cover_url TEXT NOT NULL DEFAULT '',
		play_count INTEGER NOT NULL DEFAULT 0,
		added_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	if _, err := conn.Exec(query); err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}

	indexQuery := `CREATE INDEX IF NOT EXISTS idx_tracks_added_at ON tracks (added_at DESC);`
	if _, err := conn.Exec(indexQuery); err != nil {
		return fmt.Errorf("failed to create tracks added_at index: %w", err)
	}
	return nil
}

func createUsersTable(conn *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := conn.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// CloseDB closes the database connection.
func CloseDB() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}
