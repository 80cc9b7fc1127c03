package heatmap

import (
	"sort"

	"github.com/AI2HU/heatmap/internal/models"
)

// TrendSeries reshapes weekly stats into one chart point per week present in the
// input. Every point carries a rate for every known model; missing stats read as 0.
func TrendSeries(stats []models.WeeklyModelStat) []models.WeekSeries {
	byWeek := make(map[int]map[models.ModelName]float64)
	for _, stat := range stats {
		rates, ok := byWeek[stat.Week]
		if !ok {
			rates = make(map[models.ModelName]float64, len(models.AllModelNames))
			for _, model := range models.AllModelNames {
				rates[model] = 0
			}
			byWeek[stat.Week] = rates
		}
		rates[stat.Model] = stat.MentionRate
	}

	series := make([]models.WeekSeries, 0, len(byWeek))
	for week, rates := range byWeek {
		series = append(series, models.WeekSeries{Week: week, Rates: rates})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Week < series[j].Week
	})
	return series
}
