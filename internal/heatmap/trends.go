package heatmap

import (
	"sort"

	"github.com/AI2HU/heatmap/internal/models"
)

// DefaultTrailingWindow is the number of weeks, including the selected one, in the baseline
const DefaultTrailingWindow = 4

// Trend thresholds, in mention-rate percentage points
const (
	strongThreshold = 5.0
	flatThreshold   = 1.0
)

// ClassifyTrend maps a rate delta to a trend symbol
func ClassifyTrend(delta float64) models.TrendSymbol {
	switch {
	case delta > strongThreshold:
		return models.TrendStrongUp
	case delta > flatThreshold:
		return models.TrendUp
	case delta >= -flatThreshold:
		return models.TrendFlat
	case delta >= -strongThreshold:
		return models.TrendDown
	default:
		return models.TrendStrongDown
	}
}

// CategoryTrends compares every category's rate at week with its trailing average.
//
// The trailing window covers weeks [week-window+1, week] and the sum is always divided
// by window. A week without a stat for the category, including weeks before week 1,
// counts as a rate of 0, so sparse categories and early weeks are pulled toward 0
// rather than averaged over the weeks they appear in.
// Rows are ordered by current rate descending, then category name.
func CategoryTrends(stats []models.CategoryWeekStat, week, window int) []models.CategoryTrendRow {
	if window < 1 {
		window = DefaultTrailingWindow
	}
	start := week - window + 1

	rates := make(map[string]map[int]float64)
	for _, stat := range stats {
		byWeek, ok := rates[stat.Category]
		if !ok {
			byWeek = make(map[int]float64)
			rates[stat.Category] = byWeek
		}
		byWeek[stat.Week] = stat.MentionRate
	}

	rows := make([]models.CategoryTrendRow, 0, len(rates))
	for category, byWeek := range rates {
		var sum float64
		for w := start; w <= week; w++ {
			sum += byWeek[w]
		}
		trailing := sum / float64(window)
		current := byWeek[week]
		delta := current - trailing
		rows = append(rows, models.CategoryTrendRow{
			Category:        category,
			CurrentRate:     current,
			TrailingAvgRate: trailing,
			Delta:           delta,
			Trend:           ClassifyTrend(delta),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CurrentRate != rows[j].CurrentRate {
			return rows[i].CurrentRate > rows[j].CurrentRate
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}
