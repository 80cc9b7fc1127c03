package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/shared"
)

func connect(t *testing.T) *SQLite {
	t.Helper()
	source, err := New(&models.Config{Provider: "sqlite", URI: filepath.Join(t.TempDir(), "data", "heatmap.db")})
	require.NoError(t, err)
	require.NoError(t, source.Connect(context.Background()))
	t.Cleanup(func() { source.Disconnect(context.Background()) })
	return source
}

func seed(t *testing.T, s *SQLite) {
	t.Helper()
	ctx := context.Background()
	rows := []struct {
		id, prompt, category, model string
		week, mentions              int
		ranking                     interface{}
		vendors                     interface{}
	}{
		{"r1", "p1", "vertical", "openai", 1, 1, 2, `["SAP","Inecta"]`},
		{"r2", "p1", "vertical", "gemini", 1, 0, nil, nil},
		{"r3", "p2", "pricing", "claude", 2, 2, 1, nil},
		{"r4", "p2", "pricing", "grok", 3, 0, nil, "not json"},
	}
	for _, r := range rows {
		_, err := s.DB.ExecContext(ctx, `INSERT INTO response_records
			(id, execution_week, prompt_id, prompt_category, prompt_text, model_name, inecta_mentions, inecta_ranking, vendors, "timestamp")
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, r.week, r.prompt, r.category, "text "+r.prompt, r.model, r.mentions, r.ranking, r.vendors, "2025-01-06T10:00:00Z")
		require.NoError(t, err)
	}
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(&models.Config{Provider: "sqlite"})
	assert.Error(t, err)
}

func TestSQLite_NotConnected(t *testing.T) {
	source, err := New(&models.Config{URI: "unused.db"})
	require.NoError(t, err)

	assert.ErrorIs(t, source.Ping(context.Background()), db.ErrNotConnected)
	_, err = source.ListRecords(context.Background(), shared.RecordFilter{})
	assert.ErrorIs(t, err, db.ErrNotConnected)
	assert.NoError(t, source.Disconnect(context.Background()))
}

func TestSQLite_ListRecords(t *testing.T) {
	source := connect(t)
	seed(t, source)
	ctx := context.Background()

	require.NoError(t, source.Ping(ctx))

	records, err := source.ListRecords(ctx, shared.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, models.RecordID("r1"), first.ID)
	require.NotNil(t, first.ExecutionWeek)
	assert.Equal(t, 1, *first.ExecutionWeek)
	require.NotNil(t, first.Ranking)
	assert.Equal(t, 2, *first.Ranking)
	assert.Equal(t, []interface{}{"SAP", "Inecta"}, first.Vendors)
	assert.Equal(t, "2025-01-06T10:00:00Z", first.Timestamp)

	assert.Nil(t, records[1].Ranking)
	assert.Nil(t, records[1].Vendors)
	assert.Equal(t, "not json", records[3].Vendors)
}

func TestSQLite_ListRecordsFiltered(t *testing.T) {
	source := connect(t)
	seed(t, source)
	ctx := context.Background()

	records, err := source.ListRecords(ctx, shared.RecordFilter{MinWeek: 2, MaxWeek: 3})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = source.ListRecords(ctx, shared.RecordFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.RecordID("r1"), records[0].ID)
}

func TestSQLite_ListWeeks(t *testing.T) {
	source := connect(t)
	ctx := context.Background()

	weeks, err := source.ListWeeks(ctx)
	require.NoError(t, err)
	assert.Empty(t, weeks)

	seed(t, source)
	weeks, err = source.ListWeeks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, weeks)
}

func TestSQLite_ReconnectKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heatmap.db")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		source, err := New(&models.Config{URI: path})
		require.NoError(t, err)
		require.NoError(t, source.Connect(ctx))
		require.NoError(t, source.Disconnect(ctx))
	}
}

func TestMigrationVersion(t *testing.T) {
	s := connect(t)

	version, dirty, err := db.MigrationVersion(s.DB.DB, db.DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// already applied
	require.NoError(t, db.RunMigrations(s.DB.DB, db.DialectSQLite))

	_, _, err = db.MigrationVersion(s.DB.DB, "oracle")
	assert.Error(t, err)
}
