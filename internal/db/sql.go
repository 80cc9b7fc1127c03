package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/shared"
)

// DefaultTable holds response rows when no table is configured
const DefaultTable = "response_records"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const recordColumns = `id, execution_id, execution_date, execution_week, prompt_id, prompt_category,
	prompt_text, model_name, model_responses, inecta_mentions, inecta_sentiment, inecta_ranking,
	"timestamp", citations, vendors, features, risk_flags`

// recordRow mirrors a response_records row. Every column is nullable so a
// half-filled row still scans and is rejected later by the normalizer.
type recordRow struct {
	ID             sql.NullString  `db:"id"`
	ExecutionID    sql.NullString  `db:"execution_id"`
	ExecutionDate  sql.NullString  `db:"execution_date"`
	ExecutionWeek  sql.NullInt64   `db:"execution_week"`
	PromptID       sql.NullString  `db:"prompt_id"`
	PromptCategory sql.NullString  `db:"prompt_category"`
	PromptText     sql.NullString  `db:"prompt_text"`
	ModelName      sql.NullString  `db:"model_name"`
	ModelResponses sql.NullString  `db:"model_responses"`
	Mentions       sql.NullInt64   `db:"inecta_mentions"`
	Sentiment      sql.NullFloat64 `db:"inecta_sentiment"`
	Ranking        sql.NullInt64   `db:"inecta_ranking"`
	Timestamp      sql.NullString  `db:"timestamp"`
	Citations      sql.NullString  `db:"citations"`
	Vendors        sql.NullString  `db:"vendors"`
	Features       sql.NullString  `db:"features"`
	RiskFlags      sql.NullString  `db:"risk_flags"`
}

func (r recordRow) raw() models.RawRecord {
	raw := models.RawRecord{
		ID:             models.RecordID(r.ID.String),
		ExecutionID:    r.ExecutionID.String,
		ExecutionDate:  r.ExecutionDate.String,
		PromptID:       r.PromptID.String,
		PromptCategory: r.PromptCategory.String,
		PromptText:     r.PromptText.String,
		ModelName:      r.ModelName.String,
		ModelResponses: r.ModelResponses.String,
		Timestamp:      r.Timestamp.String,
		Citations:      jsonBlob(r.Citations),
		Vendors:        jsonBlob(r.Vendors),
		Features:       jsonBlob(r.Features),
		RiskFlags:      jsonBlob(r.RiskFlags),
	}
	if r.ExecutionWeek.Valid {
		week := int(r.ExecutionWeek.Int64)
		raw.ExecutionWeek = &week
	}
	if r.Mentions.Valid {
		mentions := int(r.Mentions.Int64)
		raw.Mentions = &mentions
	}
	if r.Sentiment.Valid {
		sentiment := r.Sentiment.Float64
		raw.Sentiment = &sentiment
	}
	if r.Ranking.Valid {
		ranking := int(r.Ranking.Int64)
		raw.Ranking = &ranking
	}
	return raw
}

// jsonBlob decodes an opaque JSON column, falling back to the raw text
func jsonBlob(col sql.NullString) interface{} {
	if !col.Valid || strings.TrimSpace(col.String) == "" {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(col.String), &v); err != nil {
		return col.String
	}
	return v
}

// SQLSource reads response rows through sqlx. It is shared by the sqlite and
// postgres sources, which only differ in how they open the connection.
type SQLSource struct {
	DB    *sqlx.DB
	Table string
}

// NewSQLSource validates the table name and wraps an open connection
func NewSQLSource(db *sqlx.DB, table string) (*SQLSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	return &SQLSource{DB: db, Table: table}, nil
}

// Ping checks the database connection
func (s *SQLSource) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return ErrNotConnected
	}
	return s.DB.PingContext(ctx)
}

// ListRecords returns raw rows ordered by week then id
func (s *SQLSource) ListRecords(ctx context.Context, filter shared.RecordFilter) ([]models.RawRecord, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotConnected
	}

	var (
		where []string
		args  []interface{}
	)
	if filter.MinWeek > 0 {
		where = append(where, "execution_week >= ?")
		args = append(args, filter.MinWeek)
	}
	if filter.MaxWeek > 0 {
		where = append(where, "execution_week <= ?")
		args = append(args, filter.MaxWeek)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", recordColumns, s.Table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY execution_week, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []recordRow
	if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.Table, err)
	}

	records := make([]models.RawRecord, len(rows))
	for i, row := range rows {
		records[i] = row.raw()
	}
	return records, nil
}

// ListWeeks returns the distinct execution weeks
func (s *SQLSource) ListWeeks(ctx context.Context) ([]int, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotConnected
	}

	query := fmt.Sprintf("SELECT DISTINCT execution_week FROM %s WHERE execution_week IS NOT NULL ORDER BY execution_week", s.Table)
	weeks := []int{}
	if err := s.DB.SelectContext(ctx, &weeks, query); err != nil {
		return nil, fmt.Errorf("failed to list weeks: %w", err)
	}
	return weeks, nil
}
