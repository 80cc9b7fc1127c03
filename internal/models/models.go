package models

import (
	"time"
)

// API request/response models

// APIResponse is the envelope for every API reply
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RecordIssue describes one skipped input row
type RecordIssue struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// LoadReport summarises one snapshot load
type LoadReport struct {
	FetchID    string        `json:"fetch_id,omitempty"`
	Generation uint64        `json:"generation"`
	Received   int           `json:"received"`
	Loaded     int           `json:"loaded"`
	Skipped    int           `json:"skipped"`
	Issues     []RecordIssue `json:"issues,omitempty"`
	LoadedAt   time.Time     `json:"loaded_at"`
}

// WeeklyStatsResponse is returned by GET /api/v1/heatmap/stats
type WeeklyStatsResponse struct {
	Weeks []int             `json:"weeks"`
	Stats []WeeklyModelStat `json:"stats"`
}

// CategoryTrendsResponse is returned by GET /api/v1/heatmap/trends
type CategoryTrendsResponse struct {
	Week   int                `json:"week"`
	Window int                `json:"window"`
	Rows   []CategoryTrendRow `json:"rows"`
}

// MatrixRow is the wire form of a prompt group
type MatrixRow struct {
	PromptID     string                       `json:"prompt_id"`
	Category     string                       `json:"category"`
	Text         string                       `json:"text"`
	Slots        map[ModelName]SlotStatus     `json:"slots"`
	MissCount    int                          `json:"miss_count"`
	HitCount     int                          `json:"hit_count"`
	Responses    map[ModelName]ResponseRecord `json:"responses,omitempty"`
	Inconsistent bool                         `json:"inconsistent,omitempty"`
}

// MatrixResponse is returned by GET /api/v1/heatmap/matrix
type MatrixResponse struct {
	Week   int          `json:"week"`
	Filter MatrixFilter `json:"filter"`
	Total  int          `json:"total"`
	Rows   []MatrixRow  `json:"rows"`
}

// NewMatrixRow converts a prompt group for the API; raw responses are included on request
func NewMatrixRow(g PromptGroup, withResponses bool) MatrixRow {
	row := MatrixRow{
		PromptID:     g.PromptID,
		Category:     g.Category,
		Text:         g.Text,
		Slots:        g.Slots(),
		MissCount:    g.MissCount(),
		HitCount:     g.HitCount(),
		Inconsistent: g.Inconsistent,
	}
	if withResponses {
		row.Responses = g.Responses
	}
	return row
}

// SeriesResponse is returned by GET /api/v1/heatmap/series
type SeriesResponse struct {
	Models []ModelName  `json:"models"`
	Series []WeekSeries `json:"series"`
}

// SnapshotInfo describes the currently loaded snapshot
type SnapshotInfo struct {
	Generation uint64    `json:"generation"`
	Records    int       `json:"records"`
	Weeks      []int     `json:"weeks"`
	LoadedAt   time.Time `json:"loaded_at"`
}
