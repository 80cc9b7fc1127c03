package heatmap

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AI2HU/heatmap/internal/logger"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/normalize"
)

// ErrStaleSnapshot is returned when a load carries an older generation than the current snapshot
var ErrStaleSnapshot = errors.New("stale snapshot")

// Snapshot is an immutable set of normalized records. Every report is derived from it on demand.
type Snapshot struct {
	Generation uint64
	LoadedAt   time.Time
	records    []models.ResponseRecord
}

// Records returns a deep copy of the snapshot's records
func (s *Snapshot) Records() []models.ResponseRecord {
	out := make([]models.ResponseRecord, len(s.records))
	for i, record := range s.records {
		out[i] = record.Clone()
	}
	return out
}

// Len returns the number of records
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Options configures an Engine
type Options struct {
	Categories     []string // optional prompt_category whitelist
	TrailingWindow int      // default window for category trends
}

// Engine holds the current snapshot and exposes the heat map reports
type Engine struct {
	mu         sync.RWMutex
	snapshot   *Snapshot
	normalizer *normalize.Normalizer
	window     int
	log        *logger.Logger
}

// NewEngine creates an engine with an empty snapshot
func NewEngine(opts Options) *Engine {
	window := opts.TrailingWindow
	if window < 1 {
		window = DefaultTrailingWindow
	}
	return &Engine{
		snapshot:   &Snapshot{},
		normalizer: normalize.New(normalize.Options{Categories: opts.Categories}),
		window:     window,
		log:        logger.Component("engine"),
	}
}

// TrailingWindow returns the configured default window
func (e *Engine) TrailingWindow() int {
	return e.window
}

// LoadRecords normalizes raw rows and installs them as the next snapshot
func (e *Engine) LoadRecords(raw []models.RawRecord) models.LoadReport {
	e.mu.RLock()
	next := e.snapshot.Generation + 1
	e.mu.RUnlock()

	report, err := e.LoadGeneration(next, raw)
	if err != nil {
		// Only a concurrent load can win the race; its snapshot is newer anyway.
		e.log.Warning("Load superseded: %v", err)
	}
	return report
}

// LoadGeneration installs raw rows as the snapshot for the given generation.
// Loads older than or equal to the current generation are rejected with ErrStaleSnapshot.
func (e *Engine) LoadGeneration(generation uint64, raw []models.RawRecord) (models.LoadReport, error) {
	result := e.normalizer.Normalize(raw)
	report := models.LoadReport{
		Generation: generation,
		Received:   len(raw),
		Loaded:     len(result.Records),
		Skipped:    result.Skipped,
		Issues:     result.Issues,
		LoadedAt:   time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if generation <= e.snapshot.Generation {
		return report, fmt.Errorf("%w: generation %d, current %d", ErrStaleSnapshot, generation, e.snapshot.Generation)
	}
	e.snapshot = &Snapshot{
		Generation: generation,
		LoadedAt:   report.LoadedAt,
		records:    result.Records,
	}

	if result.Skipped > 0 {
		e.log.Warning("Skipped %d malformed records out of %d", result.Skipped, len(raw))
		for _, issue := range result.Issues {
			e.log.Debug("Skipped record #%d (id=%s): %s", issue.Index, issue.ID, issue.Reason)
		}
	}
	e.log.Info("Loaded snapshot generation %d with %d records", generation, len(result.Records))
	return report, nil
}

// LoadJSON decodes a JSON array of raw rows and loads it.
// Input that is not a JSON array is rejected with normalize.ErrInvalidInput.
func (e *Engine) LoadJSON(data []byte) (models.LoadReport, error) {
	raw, err := normalize.DecodeRecords(data)
	if err != nil {
		return models.LoadReport{}, fmt.Errorf("failed to decode records: %w", err)
	}
	return e.LoadRecords(raw), nil
}

// Snapshot returns the current snapshot
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Info describes the current snapshot
func (e *Engine) Info() models.SnapshotInfo {
	s := e.Snapshot()
	return models.SnapshotInfo{
		Generation: s.Generation,
		Records:    s.Len(),
		Weeks:      Weeks(s.records),
		LoadedAt:   s.LoadedAt,
	}
}

// Weeks returns the distinct execution weeks of the current snapshot
func (e *Engine) Weeks() []int {
	return Weeks(e.Snapshot().records)
}

// LatestWeek returns the highest execution week, or 0 when no records are loaded
func (e *Engine) LatestWeek() int {
	weeks := e.Weeks()
	if len(weeks) == 0 {
		return 0
	}
	return weeks[len(weeks)-1]
}

// ComputeWeeklyStats returns per-(week, model) statistics ordered by week then model
func (e *Engine) ComputeWeeklyStats() []models.WeeklyModelStat {
	return SortWeekly(AggregateWeekly(e.Snapshot().records))
}

// CategoryWeekStats returns per-(category, week) statistics
func (e *Engine) CategoryWeekStats() []models.CategoryWeekStat {
	return AggregateCategoryWeeks(e.Snapshot().records)
}

// ComputeCategoryTrends classifies every category at week against its trailing window.
// A window below 1 falls back to the engine default.
func (e *Engine) ComputeCategoryTrends(week, window int) ([]models.CategoryTrendRow, error) {
	if week < 1 {
		return nil, fmt.Errorf("%w: week must be >= 1, got %d", normalize.ErrInvalidInput, week)
	}
	if window < 1 {
		window = e.window
	}
	return CategoryTrends(e.CategoryWeekStats(), week, window), nil
}

// BuildMatrix returns the filtered prompt groups for week (AllWeeks for every week)
func (e *Engine) BuildMatrix(week int, filter models.MatrixFilter) []models.PromptGroup {
	return BuildMatrix(e.Snapshot().records, week, filter)
}

// BuildTrendSeries returns the per-week model rate series
func (e *Engine) BuildTrendSeries() []models.WeekSeries {
	return TrendSeries(e.ComputeWeeklyStats())
}
