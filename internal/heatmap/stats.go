package heatmap

import (
	"sort"

	"github.com/AI2HU/heatmap/internal/models"
)

// StatKey identifies a weekly model bucket
type StatKey struct {
	Week  int
	Model models.ModelName
}

// CategoryKey identifies a weekly category bucket
type CategoryKey struct {
	Category string
	Week     int
}

type bucket struct {
	total        int
	mentioned    int
	rankingSum   int
	rankingCount int
}

func (b *bucket) add(record models.ResponseRecord) {
	b.total++
	if !record.Mentioned() {
		return
	}
	b.mentioned++
	if record.RankingWhenMentioned != nil {
		b.rankingSum += *record.RankingWhenMentioned
		b.rankingCount++
	}
}

func (b *bucket) rate() float64 {
	if b.total == 0 {
		return 0
	}
	return float64(b.mentioned) / float64(b.total) * 100
}

func (b *bucket) avgRanking() float64 {
	if b.rankingCount == 0 {
		return 0
	}
	return float64(b.rankingSum) / float64(b.rankingCount)
}

// AggregateWeekly builds per-(week, model) mention statistics
func AggregateWeekly(records []models.ResponseRecord) map[StatKey]models.WeeklyModelStat {
	buckets := make(map[StatKey]*bucket)
	for _, record := range records {
		key := StatKey{Week: record.ExecutionWeek, Model: record.ModelName}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.add(record)
	}

	stats := make(map[StatKey]models.WeeklyModelStat, len(buckets))
	for key, b := range buckets {
		stats[key] = models.WeeklyModelStat{
			Week:           key.Week,
			Model:          key.Model,
			TotalResponses: b.total,
			MentionCount:   b.mentioned,
			MentionRate:    b.rate(),
			AvgRanking:     b.avgRanking(),
		}
	}
	return stats
}

// SortWeekly flattens weekly stats ordered by week, then model display order
func SortWeekly(stats map[StatKey]models.WeeklyModelStat) []models.WeeklyModelStat {
	results := make([]models.WeeklyModelStat, 0, len(stats))
	for _, stat := range stats {
		results = append(results, stat)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Week != results[j].Week {
			return results[i].Week < results[j].Week
		}
		return results[i].Model.Index() < results[j].Model.Index()
	})
	return results
}

// AggregateCategoryWeeks builds per-(category, week) mention statistics
func AggregateCategoryWeeks(records []models.ResponseRecord) []models.CategoryWeekStat {
	buckets := make(map[CategoryKey]*bucket)
	for _, record := range records {
		key := CategoryKey{Category: record.PromptCategory, Week: record.ExecutionWeek}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.add(record)
	}

	results := make([]models.CategoryWeekStat, 0, len(buckets))
	for key, b := range buckets {
		results = append(results, models.CategoryWeekStat{
			Category:    key.Category,
			Week:        key.Week,
			Total:       b.total,
			Mentions:    b.mentioned,
			MentionRate: b.rate(),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Category != results[j].Category {
			return results[i].Category < results[j].Category
		}
		return results[i].Week < results[j].Week
	})
	return results
}

// Weeks returns the distinct execution weeks in ascending order
func Weeks(records []models.ResponseRecord) []int {
	seen := make(map[int]bool)
	weeks := []int{}
	for _, record := range records {
		if !seen[record.ExecutionWeek] {
			seen[record.ExecutionWeek] = true
			weeks = append(weeks, record.ExecutionWeek)
		}
	}
	sort.Ints(weeks)
	return weeks
}
