package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/heatmap/internal/loader"
	"github.com/AI2HU/heatmap/internal/models"
)

type fakeRefresher struct {
	calls  int
	report models.LoadReport
	err    error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (models.LoadReport, error) {
	f.calls++
	return f.report, f.err
}

func TestStartStop(t *testing.T) {
	s := New(&fakeRefresher{}, "@every 1h")
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx), "second start")

	status := s.Status()
	assert.True(t, status.Running)
	assert.Equal(t, "@every 1h", status.CronExpr)
	require.NotNil(t, status.NextRun)

	s.Stop()
	assert.False(t, s.Status().Running)
	s.Stop()
}

func TestStart_RequiresExpression(t *testing.T) {
	assert.Error(t, New(&fakeRefresher{}, "").Start(context.Background()))
	assert.Error(t, New(&fakeRefresher{}, "not a cron").Start(context.Background()))
}

func TestReload(t *testing.T) {
	s := New(&fakeRefresher{}, "@every 1h")
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	assert.Error(t, s.Reload(ctx, "every tuesday"))
	assert.Equal(t, "@every 1h", s.Status().CronExpr)

	require.NoError(t, s.Reload(ctx, "0 6 * * 1"))
	status := s.Status()
	assert.Equal(t, "0 6 * * 1", status.CronExpr)
	require.NotNil(t, status.NextRun)
	assert.Equal(t, 6, status.NextRun.Hour())
}

func TestRunNow_RecordsResult(t *testing.T) {
	refresher := &fakeRefresher{report: models.LoadReport{FetchID: "f1", Generation: 4, Loaded: 10}}
	s := New(refresher, "@every 1h")

	report, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), report.Generation)

	status := s.Status()
	require.NotNil(t, status.LastRun)
	require.NotNil(t, status.LastReport)
	assert.Equal(t, 10, status.LastReport.Loaded)
	assert.Empty(t, status.LastError)

	refresher.err = errors.New("store offline")
	_, err = s.RunNow(context.Background())
	assert.Error(t, err)
	status = s.Status()
	assert.Equal(t, "store offline", status.LastError)
	assert.Equal(t, "f1", status.LastReport.FetchID, "last good report is kept")
}

func TestRunNow_StaleFetchIsNotAFailure(t *testing.T) {
	refresher := &fakeRefresher{err: fmt.Errorf("%w: generation 2", loader.ErrStaleFetch)}
	s := New(refresher, "@every 1h")

	_, err := s.RunNow(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, s.Status().LastError)
	assert.Nil(t, s.Status().LastRun)
}
