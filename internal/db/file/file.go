package file

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/normalize"
	"github.com/AI2HU/heatmap/internal/shared"
)

// File implements the RecordSource interface over a JSON export: an array of
// response rows as produced by the collection pipeline. The file is re-read
// on every listing so a reload picks up a replaced export.
type File struct {
	mu        sync.Mutex
	path      string
	connected bool
}

// New creates a new file record source
func New(config *models.Config) (*File, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("records file path is required")
	}
	return &File{path: config.URI}, nil
}

// Connect checks that the export is readable
func (f *File) Connect(ctx context.Context) error {
	if err := f.check(); err != nil {
		return err
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

// Disconnect is a no-op beyond marking the source closed
func (f *File) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	return nil
}

// Ping checks the export is still there
func (f *File) Ping(ctx context.Context) error {
	if !f.isConnected() {
		return db.ErrNotConnected
	}
	return f.check()
}

// ListRecords decodes the export and applies the week range and limit
func (f *File) ListRecords(ctx context.Context, filter shared.RecordFilter) ([]models.RawRecord, error) {
	rows, err := f.read(ctx)
	if err != nil {
		return nil, err
	}

	ranged := filter.MinWeek > 0 || filter.MaxWeek > 0
	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		if ranged && (row.ExecutionWeek == nil || !filter.MatchesWeek(*row.ExecutionWeek)) {
			continue
		}
		records = append(records, row)
		if filter.Limit > 0 && len(records) == filter.Limit {
			break
		}
	}
	return records, nil
}

// ListWeeks returns the distinct execution weeks in ascending order
func (f *File) ListWeeks(ctx context.Context) ([]int, error) {
	rows, err := f.read(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	weeks := []int{}
	for _, row := range rows {
		if row.ExecutionWeek == nil || seen[*row.ExecutionWeek] {
			continue
		}
		seen[*row.ExecutionWeek] = true
		weeks = append(weeks, *row.ExecutionWeek)
	}
	sort.Ints(weeks)
	return weeks, nil
}

func (f *File) read(ctx context.Context) ([]models.RawRecord, error) {
	if !f.isConnected() {
		return nil, db.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	rows, err := normalize.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.path, err)
	}
	return rows, nil
}

func (f *File) check() error {
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("failed to open records file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("records path %s is a directory", f.path)
	}
	return nil
}

func (f *File) isConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
