package db

import (
	"context"
	"errors"

	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/shared"
)

// ErrNotConnected is returned by sources used before Connect
var ErrNotConnected = errors.New("not connected to database")

// RecordSource defines the read-only operations on the store holding response rows
type RecordSource interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// ListRecords returns raw rows; validation is left to the normalizer
	ListRecords(ctx context.Context, filter shared.RecordFilter) ([]models.RawRecord, error)
	// ListWeeks returns the distinct execution weeks in ascending order
	ListWeeks(ctx context.Context) ([]int, error)
}
