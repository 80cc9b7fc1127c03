package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/normalize"
	"github.com/AI2HU/heatmap/internal/shared"
)

const export = `[
	{"id": "a", "execution_week": 3, "prompt_id": "p1", "prompt_category": "vertical", "model_name": "openai", "inecta_mentions": 1},
	{"id": "b", "execution_week": 1, "prompt_id": "p1", "prompt_category": "vertical", "model_name": "grok", "inecta_mentions": 0},
	{"id": "c", "prompt_id": "p2", "prompt_category": "pricing", "model_name": "gemini", "inecta_mentions": 0},
	{"id": "d", "execution_week": 3, "prompt_id": "p2", "prompt_category": "pricing", "model_name": "claude", "inecta_mentions": 2}
]`

func writeExport(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func open(t *testing.T, path string) *File {
	t.Helper()
	source, err := New(&models.Config{Provider: "file", URI: path})
	require.NoError(t, err)
	require.NoError(t, source.Connect(context.Background()))
	return source
}

func TestFile_Connect(t *testing.T) {
	_, err := New(&models.Config{Provider: "file"})
	assert.Error(t, err)

	source, err := New(&models.Config{URI: filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)
	assert.Error(t, source.Connect(context.Background()))

	_, err = source.ListRecords(context.Background(), shared.RecordFilter{})
	assert.ErrorIs(t, err, db.ErrNotConnected)
}

func TestFile_ListRecords(t *testing.T) {
	source := open(t, writeExport(t, export))
	ctx := context.Background()

	records, err := source.ListRecords(ctx, shared.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 4, "rows without a week are kept for the normalizer to report")

	records, err = source.ListRecords(ctx, shared.RecordFilter{MinWeek: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.RecordID("a"), records[0].ID)
	assert.Equal(t, models.RecordID("d"), records[1].ID)

	records, err = source.ListRecords(ctx, shared.RecordFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFile_ListWeeks(t *testing.T) {
	source := open(t, writeExport(t, export))

	weeks, err := source.ListWeeks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, weeks)
}

func TestFile_RereadsReplacedExport(t *testing.T) {
	path := writeExport(t, export)
	source := open(t, path)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))
	records, err := source.ListRecords(ctx, shared.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, os.WriteFile(path, []byte(`{"rows": []}`), 0644))
	_, err = source.ListRecords(ctx, shared.RecordFilter{})
	assert.ErrorIs(t, err, normalize.ErrInvalidInput)
}

func TestFile_Disconnect(t *testing.T) {
	source := open(t, writeExport(t, export))
	require.NoError(t, source.Ping(context.Background()))
	require.NoError(t, source.Disconnect(context.Background()))
	assert.ErrorIs(t, source.Ping(context.Background()), db.ErrNotConnected)
}
