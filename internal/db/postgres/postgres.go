package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/models"
)

const (
	defaultMaxOpenConns = 10
	defaultConnMaxIdle  = 5 * time.Minute
)

// Postgres implements the RecordSource interface for PostgreSQL.
// The response table is usually owned by the collection pipeline, so
// migrations only run when options.migrate is "true".
type Postgres struct {
	*db.SQLSource
	config *models.Config
}

// New creates a new PostgreSQL record source
func New(config *models.Config) (*Postgres, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("postgres connection string is required")
	}
	return &Postgres{config: config}, nil
}

// Connect opens the connection pool
func (p *Postgres) Connect(ctx context.Context) error {
	conn, err := sqlx.Open("postgres", p.config.URI)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	conn.SetMaxOpenConns(p.maxOpenConns())
	conn.SetConnMaxIdleTime(defaultConnMaxIdle)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if p.option("migrate") == "true" {
		if err := db.RunMigrations(conn.DB, db.DialectPostgres); err != nil {
			conn.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	source, err := db.NewSQLSource(conn, p.config.Table)
	if err != nil {
		conn.Close()
		return err
	}
	p.SQLSource = source
	return nil
}

// Disconnect closes the connection pool
func (p *Postgres) Disconnect(ctx context.Context) error {
	if p.SQLSource != nil && p.DB != nil {
		return p.DB.Close()
	}
	return nil
}

func (p *Postgres) option(key string) string {
	if p.config.Options == nil {
		return ""
	}
	return p.config.Options[key]
}

func (p *Postgres) maxOpenConns() int {
	if n, err := strconv.Atoi(p.option("max_open_conns")); err == nil && n > 0 {
		return n
	}
	return defaultMaxOpenConns
}
