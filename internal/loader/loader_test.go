package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/heatmap/internal/heatmap"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/shared"
)

// fakeSource serves rows from a callback
type fakeSource struct {
	calls atomic.Int32
	list  func(ctx context.Context, call int32, filter shared.RecordFilter) ([]models.RawRecord, error)
}

func (f *fakeSource) ListRecords(ctx context.Context, filter shared.RecordFilter) ([]models.RawRecord, error) {
	return f.list(ctx, f.calls.Add(1), filter)
}

func rows(n, week int, model string) []models.RawRecord {
	out := make([]models.RawRecord, n)
	for i := range out {
		w, mentions := week, 1
		out[i] = models.RawRecord{
			ID:             models.RecordID(model + string(rune('a'+i))),
			ExecutionWeek:  &w,
			PromptID:       "p",
			PromptCategory: "vertical",
			ModelName:      model,
			Mentions:       &mentions,
		}
	}
	return out
}

func TestRefresh_InstallsSnapshot(t *testing.T) {
	engine := heatmap.NewEngine(heatmap.Options{})
	source := &fakeSource{list: func(ctx context.Context, _ int32, _ shared.RecordFilter) ([]models.RawRecord, error) {
		return rows(3, 1, "openai"), nil
	}}
	l := New(source, engine, Options{})

	report, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.FetchID)
	assert.Equal(t, uint64(1), report.Generation)
	assert.Equal(t, 3, report.Loaded)
	assert.Equal(t, 3, engine.Snapshot().Len())
	assert.Equal(t, uint64(1), l.Generation())
}

func TestRefresh_RetriesThenSucceeds(t *testing.T) {
	engine := heatmap.NewEngine(heatmap.Options{})
	source := &fakeSource{list: func(ctx context.Context, call int32, _ shared.RecordFilter) ([]models.RawRecord, error) {
		if call < 3 {
			return nil, errors.New("connection reset")
		}
		return rows(1, 2, "grok"), nil
	}}
	l := New(source, engine, Options{MaxRetries: 3, RetryDelay: 0})

	report, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, int32(3), source.calls.Load())
}

func TestRefresh_GivesUpAfterMaxRetries(t *testing.T) {
	engine := heatmap.NewEngine(heatmap.Options{})
	source := &fakeSource{list: func(ctx context.Context, _ int32, _ shared.RecordFilter) ([]models.RawRecord, error) {
		return nil, errors.New("connection refused")
	}}
	l := New(source, engine, Options{MaxRetries: 2, RetryDelay: 0})

	_, err := l.Refresh(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.Equal(t, int32(2), source.calls.Load())
	assert.Zero(t, engine.Snapshot().Generation, "failed fetches leave the snapshot alone")
}

func TestRefresh_PassesFilter(t *testing.T) {
	engine := heatmap.NewEngine(heatmap.Options{})
	var seen []shared.RecordFilter
	var mu sync.Mutex
	source := &fakeSource{list: func(ctx context.Context, _ int32, filter shared.RecordFilter) ([]models.RawRecord, error) {
		mu.Lock()
		seen = append(seen, filter)
		mu.Unlock()
		return nil, nil
	}}
	l := New(source, engine, Options{Filter: shared.RecordFilter{MinWeek: 3}})

	_, err := l.Refresh(context.Background())
	require.NoError(t, err)
	_, err = l.SetFilter(context.Background(), shared.RecordFilter{MinWeek: 5, MaxWeek: 8})
	require.NoError(t, err)

	assert.Equal(t, []shared.RecordFilter{{MinWeek: 3}, {MinWeek: 5, MaxWeek: 8}}, seen)
	assert.Equal(t, shared.RecordFilter{MinWeek: 5, MaxWeek: 8}, l.Filter())
}

// A slow fetch started first must not overwrite the result of a faster fetch started later.
func TestRefresh_OverlappingFetchesKeepLatest(t *testing.T) {
	engine := heatmap.NewEngine(heatmap.Options{})
	started := make(chan struct{})
	release := make(chan struct{})

	source := &fakeSource{list: func(ctx context.Context, call int32, _ shared.RecordFilter) ([]models.RawRecord, error) {
		if call == 1 {
			close(started)
			// ignores cancellation to simulate a store that answers late
			<-release
			return rows(5, 1, "openai"), nil
		}
		return rows(2, 2, "claude"), nil
	}}
	l := New(source, engine, Options{MaxRetries: 1})

	slowErr := make(chan error, 1)
	go func() {
		_, err := l.Refresh(context.Background())
		slowErr <- err
	}()
	<-started

	report, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), report.Generation)

	close(release)
	assert.ErrorIs(t, <-slowErr, ErrStaleFetch)

	snap := engine.Snapshot()
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, models.ModelClaude, snap.Records()[0].ModelName)
}

func TestRefresh_NewFetchCancelsPrevious(t *testing.T) {
	engine := heatmap.NewEngine(heatmap.Options{})
	started := make(chan struct{})
	cancelled := make(chan struct{})

	source := &fakeSource{list: func(ctx context.Context, call int32, _ shared.RecordFilter) ([]models.RawRecord, error) {
		if call == 1 {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return rows(1, 1, "gemini"), nil
	}}
	l := New(source, engine, Options{MaxRetries: 1})

	slowErr := make(chan error, 1)
	go func() {
		_, err := l.Refresh(context.Background())
		slowErr <- err
	}()
	<-started

	_, err := l.Refresh(context.Background())
	require.NoError(t, err)
	<-cancelled
	assert.ErrorIs(t, <-slowErr, ErrStaleFetch)
	assert.Equal(t, 1, engine.Snapshot().Len())
}

func TestRefresh_GenerationAboveDirectLoads(t *testing.T) {
	engine := heatmap.NewEngine(heatmap.Options{})
	engine.LoadRecords(nil)
	engine.LoadRecords(nil)

	source := &fakeSource{list: func(ctx context.Context, _ int32, _ shared.RecordFilter) ([]models.RawRecord, error) {
		return rows(1, 1, "grok"), nil
	}}
	l := New(source, engine, Options{})

	report, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), report.Generation)
	assert.Equal(t, uint64(3), engine.Snapshot().Generation)
}

func TestStop_CancelsInFlight(t *testing.T) {
	engine := heatmap.NewEngine(heatmap.Options{})
	started := make(chan struct{})
	source := &fakeSource{list: func(ctx context.Context, _ int32, _ shared.RecordFilter) ([]models.RawRecord, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	l := New(source, engine, Options{MaxRetries: 1})

	done := make(chan error, 1)
	go func() {
		_, err := l.Refresh(context.Background())
		done <- err
	}()
	<-started
	l.Stop()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStaleFetch)
}
