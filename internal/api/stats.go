package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/heatmap/internal/heatmap"
	"github.com/AI2HU/heatmap/internal/loader"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/normalize"
	"github.com/AI2HU/heatmap/internal/shared"
)

// Heat map endpoints

// getWeeks handles GET /api/v1/heatmap/weeks
func (s *Server) getWeeks(c *gin.Context) {
	weeks := s.engine.Weeks()
	latest := 0
	if len(weeks) > 0 {
		latest = weeks[len(weeks)-1]
	}

	s.successResponse(c, gin.H{
		"weeks":  weeks,
		"latest": latest,
	})
}

// getWeeklyStats handles GET /api/v1/heatmap/stats
func (s *Server) getWeeklyStats(c *gin.Context) {
	week, err := shared.ParseIntQuery(c, "week", 0)
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	stats := s.engine.ComputeWeeklyStats()
	if week > 0 {
		filtered := make([]models.WeeklyModelStat, 0, len(models.AllModelNames))
		for _, stat := range stats {
			if stat.Week == week {
				filtered = append(filtered, stat)
			}
		}
		stats = filtered
	}

	s.successResponse(c, models.WeeklyStatsResponse{
		Weeks: s.engine.Weeks(),
		Stats: stats,
	})
}

// getCategoryTrends handles GET /api/v1/heatmap/trends
func (s *Server) getCategoryTrends(c *gin.Context) {
	week, err := shared.ParseIntQuery(c, "week", s.engine.LatestWeek())
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	window, err := shared.ParseIntQuery(c, "window", s.engine.TrailingWindow())
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// Nothing loaded and no week asked for: an empty report, not an error
	if week == 0 && c.Query("week") == "" {
		s.successResponse(c, models.CategoryTrendsResponse{Window: window, Rows: []models.CategoryTrendRow{}})
		return
	}

	rows, err := s.engine.ComputeCategoryTrends(week, window)
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid trend request: "+err.Error())
		return
	}
	if window < 1 {
		window = s.engine.TrailingWindow()
	}

	s.successResponse(c, models.CategoryTrendsResponse{
		Week:   week,
		Window: window,
		Rows:   rows,
	})
}

// getMatrix handles GET /api/v1/heatmap/matrix
// Query: week (number or "all", defaults to the latest), category (repeatable),
// q, only_misses, include_responses.
func (s *Server) getMatrix(c *gin.Context) {
	week := s.engine.LatestWeek()
	if raw := strings.TrimSpace(c.Query("week")); strings.EqualFold(raw, "all") {
		week = heatmap.AllWeeks
	} else if raw != "" {
		var err error
		if week, err = shared.ParseIntQuery(c, "week", week); err != nil {
			s.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		if week < 1 {
			s.errorResponse(c, http.StatusBadRequest, "week must be >= 1 or \"all\"")
			return
		}
	}

	filter := models.MatrixFilter{
		Categories: shared.ParseListQuery(c, "category"),
		SearchText: strings.TrimSpace(c.Query("q")),
		OnlyMisses: shared.ParseBoolQuery(c, "only_misses", false),
	}
	withResponses := shared.ParseBoolQuery(c, "include_responses", false)

	groups := s.engine.BuildMatrix(week, filter)
	rows := make([]models.MatrixRow, len(groups))
	for i, group := range groups {
		rows[i] = models.NewMatrixRow(group, withResponses)
	}

	s.successResponse(c, models.MatrixResponse{
		Week:   week,
		Filter: filter,
		Total:  len(rows),
		Rows:   rows,
	})
}

// getSeries handles GET /api/v1/heatmap/series
func (s *Server) getSeries(c *gin.Context) {
	s.successResponse(c, models.SeriesResponse{
		Models: models.AllModelNames,
		Series: s.engine.BuildTrendSeries(),
	})
}

// Snapshot endpoints

// reload handles POST /api/v1/reload
// Query: from_week, to_week (0 clears a bound). Changing them refetches with the new range.
func (s *Server) reload(c *gin.Context) {
	if s.refresher == nil {
		s.errorResponse(c, http.StatusNotImplemented, "Reloading is not configured")
		return
	}

	filter := s.refresher.Filter()
	changed := false
	for key, bound := range map[string]*int{"from_week": &filter.MinWeek, "to_week": &filter.MaxWeek} {
		if _, ok := c.GetQuery(key); !ok {
			continue
		}
		value, err := shared.ParseIntQuery(c, key, 0)
		if err != nil {
			s.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		if value < 0 {
			s.errorResponse(c, http.StatusBadRequest, key+" must be >= 0")
			return
		}
		*bound = value
		changed = true
	}
	if filter.MinWeek > 0 && filter.MaxWeek > 0 && filter.MinWeek > filter.MaxWeek {
		s.errorResponse(c, http.StatusBadRequest, "from_week must not be after to_week")
		return
	}

	var (
		report models.LoadReport
		err    error
	)
	if changed {
		report, err = s.refresher.SetFilter(c.Request.Context(), filter)
	} else {
		report, err = s.refresher.Refresh(c.Request.Context())
	}
	if err != nil {
		if errors.Is(err, loader.ErrStaleFetch) {
			s.errorResponse(c, http.StatusConflict, "Reload superseded by a newer reload")
			return
		}
		s.errorResponse(c, http.StatusBadGateway, "Failed to reload records: "+err.Error())
		return
	}

	s.successResponse(c, report)
}

// healthCheck handles GET /api/v1/health
func (s *Server) healthCheck(c *gin.Context) {
	if s.source != nil {
		if err := s.source.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.APIResponse{
				Success: false,
				Error:   "Record source unavailable",
			})
			return
		}
	}

	data := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"snapshot":  s.engine.Info(),
	}
	if s.schedule != nil {
		data["schedule"] = s.schedule.Status()
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
	})
}

// getSchema handles GET /api/v1/schema
func (s *Server) getSchema(c *gin.Context) {
	s.successResponse(c, normalize.ExportSchema())
}
