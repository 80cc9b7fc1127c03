package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AI2HU/heatmap/internal/loader"
	"github.com/AI2HU/heatmap/internal/logger"
	"github.com/AI2HU/heatmap/internal/models"
)

// Refresher reloads the engine snapshot
type Refresher interface {
	Refresh(ctx context.Context) (models.LoadReport, error)
}

// Status describes the scheduler and its last run
type Status struct {
	Running    bool               `json:"running"`
	CronExpr   string             `json:"cron_expr,omitempty"`
	NextRun    *time.Time         `json:"next_run,omitempty"`
	LastRun    *time.Time         `json:"last_run,omitempty"`
	LastReport *models.LoadReport `json:"last_report,omitempty"`
	LastError  string             `json:"last_error,omitempty"`
}

// Scheduler refreshes the snapshot on a cron expression
type Scheduler struct {
	refresher Refresher
	cron      *cron.Cron
	cronExpr  string
	entryID   cron.EntryID
	running   bool
	mu        sync.RWMutex

	lastRun    *time.Time
	lastReport *models.LoadReport
	lastErr    error
}

// New creates a new scheduler
func New(refresher Refresher, cronExpr string) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		cron:      cron.New(),
		cronExpr:  cronExpr,
	}
}

// Start registers the refresh job and starts the cron runner
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.cronExpr == "" {
		return fmt.Errorf("no refresh cron expression configured")
	}

	if err := s.register(ctx, s.cronExpr); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	logger.Info("Scheduler started (refresh: %s)", s.cronExpr)
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	done := s.cron.Stop()
	s.running = false
	s.mu.Unlock()

	// a job in flight records its result under s.mu
	<-done.Done()
	logger.Info("Scheduler stopped")
}

// Reload replaces the refresh cron expression
func (s *Scheduler) Reload(ctx context.Context, cronExpr string) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
	s.cronExpr = cronExpr
	if !s.running {
		return nil
	}
	return s.register(ctx, cronExpr)
}

// RunNow performs a refresh outside the cron schedule
func (s *Scheduler) RunNow(ctx context.Context) (models.LoadReport, error) {
	return s.execute(ctx)
}

// Status returns the scheduler state
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		Running:    s.running,
		CronExpr:   s.cronExpr,
		LastRun:    s.lastRun,
		LastReport: s.lastReport,
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	if s.running && s.entryID != 0 {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// register adds the cron job; callers hold s.mu
func (s *Scheduler) register(ctx context.Context, cronExpr string) error {
	id, err := s.cron.AddFunc(cronExpr, func() {
		if _, err := s.execute(ctx); err != nil {
			logger.Error("Scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = id
	logger.Info("Registered refresh with cron expression: %s", cronExpr)
	return nil
}

func (s *Scheduler) execute(ctx context.Context) (models.LoadReport, error) {
	logger.Debug("Refreshing snapshot")
	report, err := s.refresher.Refresh(ctx)

	if errors.Is(err, loader.ErrStaleFetch) {
		// a newer refresh owns the snapshot
		logger.Warning("Refresh %s superseded", report.FetchID)
		return report, nil
	}

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.lastErr = err
	if err == nil {
		s.lastReport = &report
	}
	s.mu.Unlock()

	if err != nil {
		return report, err
	}

	logger.Info("Refresh %s loaded %d records (skipped %d), generation %d",
		report.FetchID, report.Loaded, report.Skipped, report.Generation)
	return report, nil
}
