package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/AI2HU/heatmap/internal/heatmap"
	"github.com/AI2HU/heatmap/internal/logger"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/shared"
)

const tracerName = "github.com/AI2HU/heatmap/internal/loader"

// Retry configuration
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// ErrStaleFetch is returned by a fetch that was superseded by a newer one
var ErrStaleFetch = errors.New("stale fetch")

// Source is the part of a record store the loader reads from
type Source interface {
	ListRecords(ctx context.Context, filter shared.RecordFilter) ([]models.RawRecord, error)
}

// Options configures a Loader
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  float64 // fetch attempts per second, 0 disables pacing
	Filter     shared.RecordFilter
}

// Loader fetches raw rows from a Source and installs them in the engine.
// Every Refresh takes a new generation and cancels the fetch in flight, so
// only the most recently started fetch can ever replace the snapshot.
type Loader struct {
	source  Source
	engine  *heatmap.Engine
	opts    Options
	limiter *rate.Limiter
	log     *logger.Logger

	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	filter shared.RecordFilter
}

// New creates a loader feeding engine from source
func New(source Source, engine *heatmap.Engine, opts Options) *Loader {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = DefaultRetryDelay
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Loader{
		source:  source,
		engine:  engine,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.Component("loader"),
		filter:  opts.Filter,
	}
}

// Filter returns the filter used by Refresh
func (l *Loader) Filter() shared.RecordFilter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// SetFilter changes the filter and starts a refresh with it
func (l *Loader) SetFilter(ctx context.Context, filter shared.RecordFilter) (models.LoadReport, error) {
	l.mu.Lock()
	l.filter = filter
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Generation returns the generation of the most recently started fetch
func (l *Loader) Generation() uint64 {
	return l.generation.Load()
}

// Refresh fetches the record set and installs it as a new snapshot.
// It returns ErrStaleFetch when a later Refresh started before this one finished.
func (l *Loader) Refresh(ctx context.Context) (models.LoadReport, error) {
	fetchID := uuid.New().String()

	fetchCtx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	gen := l.nextGeneration()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	filter := l.filter
	l.mu.Unlock()
	defer cancel()

	fetchCtx, span := otel.Tracer(tracerName).Start(fetchCtx, "loader.Refresh")
	defer span.End()
	span.SetAttributes(
		attribute.String("fetch.id", fetchID),
		attribute.Int64("fetch.generation", int64(gen)),
	)

	log := l.log.WithField("fetch_id", fetchID)
	log.Debug("Fetch started (generation %d)", gen)

	raw, err := l.fetch(fetchCtx, filter)
	if l.isStale(gen) {
		log.Warning("Fetch discarded: generation %d superseded by %d", gen, l.Generation())
		span.SetStatus(codes.Error, "superseded")
		return models.LoadReport{FetchID: fetchID, Generation: gen}, fmt.Errorf("%w: generation %d", ErrStaleFetch, gen)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.LoadReport{FetchID: fetchID, Generation: gen}, fmt.Errorf("failed to fetch records: %w", err)
	}

	report, err := l.engine.LoadGeneration(gen, raw)
	report.FetchID = fetchID
	if err != nil {
		if errors.Is(err, heatmap.ErrStaleSnapshot) {
			log.Warning("Fetch discarded: %v", err)
			span.SetStatus(codes.Error, "superseded")
			return report, fmt.Errorf("%w: %v", ErrStaleFetch, err)
		}
		return report, err
	}

	span.SetAttributes(
		attribute.Int("records.loaded", report.Loaded),
		attribute.Int("records.skipped", report.Skipped),
	)
	return report, nil
}

// fetch lists records with bounded retries, pacing attempts with the limiter
func (l *Loader) fetch(ctx context.Context, filter shared.RecordFilter) ([]models.RawRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= l.opts.MaxRetries; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		raw, err := l.source.ListRecords(ctx, filter)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt < l.opts.MaxRetries {
			l.log.Warning("Fetch attempt %d/%d failed: %v, retrying in %v", attempt, l.opts.MaxRetries, err, l.opts.RetryDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.opts.RetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", l.opts.MaxRetries, lastErr)
}

// nextGeneration returns a generation above both the last fetch and the
// engine's snapshot, which may have been loaded directly. Callers hold l.mu.
func (l *Loader) nextGeneration() uint64 {
	for {
		current := l.generation.Load()
		next := current
		if snap := l.engine.Snapshot().Generation; snap > next {
			next = snap
		}
		next++
		if l.generation.CompareAndSwap(current, next) {
			return next
		}
	}
}

func (l *Loader) isStale(gen uint64) bool {
	return l.generation.Load() != gen
}

// Stop cancels the fetch in flight, if any
func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
