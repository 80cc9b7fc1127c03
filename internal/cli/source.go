package cli

import (
	"errors"
	"fmt"

	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/db/file"
	"github.com/AI2HU/heatmap/internal/db/mongodb"
	"github.com/AI2HU/heatmap/internal/db/postgres"
	"github.com/AI2HU/heatmap/internal/db/sqlite"
	"github.com/AI2HU/heatmap/internal/models"
)

// ErrUnsupportedProvider is returned for an unknown database provider
var ErrUnsupportedProvider = errors.New("unsupported database provider")

// newSource creates the record source for the configured provider
func newSource(dbConfig *models.Config) (db.RecordSource, error) {
	switch dbConfig.Provider {
	case "sqlite":
		return sqlite.New(dbConfig)
	case "postgres":
		return postgres.New(dbConfig)
	case "mongodb":
		return mongodb.New(dbConfig)
	case "file":
		return file.New(dbConfig)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, dbConfig.Provider)
	}
}
