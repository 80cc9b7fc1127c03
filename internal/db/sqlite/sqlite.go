package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/models"
)

// SQLite implements the RecordSource interface for SQLite
type SQLite struct {
	*db.SQLSource
	config *models.Config
}

// New creates a new SQLite record source
func New(config *models.Config) (*SQLite, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	return &SQLite{config: config}, nil
}

// Connect opens the database file and applies the schema migrations
func (s *SQLite) Connect(ctx context.Context) error {
	dbPath, err := expandPath(s.config.URI)
	if err != nil {
		return err
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database at path '%s': %w", dbPath, err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping SQLite database at path '%s': %w", dbPath, err)
	}

	if err := db.RunMigrations(conn.DB, db.DialectSQLite); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	source, err := db.NewSQLSource(conn, s.config.Table)
	if err != nil {
		conn.Close()
		return err
	}
	s.SQLSource = source
	return nil
}

// Disconnect closes the SQLite connection
func (s *SQLite) Disconnect(ctx context.Context) error {
	if s.SQLSource != nil && s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// expandPath handles ~ and relative paths
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	return absPath, nil
}
