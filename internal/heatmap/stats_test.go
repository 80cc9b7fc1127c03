package heatmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/heatmap/internal/models"
)

func TestAggregateWeekly_Example(t *testing.T) {
	records := []models.ResponseRecord{
		rec(1, models.ModelOpenAI, "p1", "vertical", 1),
		rec(1, models.ModelGemini, "p1", "vertical", 0),
	}

	stats := AggregateWeekly(records)
	require.Len(t, stats, 2)

	openai := stats[StatKey{Week: 1, Model: models.ModelOpenAI}]
	assert.Equal(t, 1, openai.TotalResponses)
	assert.Equal(t, 1, openai.MentionCount)
	assert.Equal(t, 100.0, openai.MentionRate)

	gemini := stats[StatKey{Week: 1, Model: models.ModelGemini}]
	assert.Equal(t, 1, gemini.TotalResponses)
	assert.Equal(t, 0, gemini.MentionCount)
	assert.Equal(t, 0.0, gemini.MentionRate)
}

func TestAggregateWeekly_AvgRanking(t *testing.T) {
	records := []models.ResponseRecord{
		ranked(rec(2, models.ModelClaude, "p1", "vertical", 2), 1),
		ranked(rec(2, models.ModelClaude, "p2", "vertical", 1), 4),
		rec(2, models.ModelClaude, "p3", "vertical", 3), // mentioned without ranking
		rec(2, models.ModelClaude, "p4", "vertical", 0),
		rec(2, models.ModelGrok, "p1", "vertical", 0),
	}

	stats := AggregateWeekly(records)

	claude := stats[StatKey{Week: 2, Model: models.ModelClaude}]
	assert.Equal(t, 4, claude.TotalResponses)
	assert.Equal(t, 3, claude.MentionCount)
	assert.Equal(t, 75.0, claude.MentionRate)
	assert.Equal(t, 2.5, claude.AvgRanking)

	grok := stats[StatKey{Week: 2, Model: models.ModelGrok}]
	assert.Equal(t, 0.0, grok.AvgRanking)
}

func TestAggregateWeekly_Empty(t *testing.T) {
	assert.Empty(t, AggregateWeekly(nil))
	assert.Empty(t, SortWeekly(AggregateWeekly(nil)))
}

func TestAggregateWeekly_RateBoundsAndOrderIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var records []models.ResponseRecord
	for i := 0; i < 400; i++ {
		model := models.AllModelNames[rng.Intn(len(models.AllModelNames))]
		records = append(records, rec(1+rng.Intn(6), model, "p", "c", rng.Intn(3)))
	}

	first := AggregateWeekly(records)
	for _, stat := range first {
		assert.GreaterOrEqual(t, stat.MentionRate, 0.0)
		assert.LessOrEqual(t, stat.MentionRate, 100.0)
		if stat.TotalResponses == 0 {
			assert.Zero(t, stat.MentionRate)
		}
	}

	shuffled := make([]models.ResponseRecord, len(records))
	copy(shuffled, records)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	assert.Equal(t, first, AggregateWeekly(shuffled))
	assert.Equal(t, first, AggregateWeekly(records))
}

func TestSortWeekly_Order(t *testing.T) {
	records := []models.ResponseRecord{
		rec(2, models.ModelClaude, "p1", "c", 1),
		rec(1, models.ModelGrok, "p1", "c", 1),
		rec(1, models.ModelOpenAI, "p1", "c", 1),
	}

	sorted := SortWeekly(AggregateWeekly(records))
	require.Len(t, sorted, 3)
	assert.Equal(t, StatKey{1, models.ModelOpenAI}, StatKey{sorted[0].Week, sorted[0].Model})
	assert.Equal(t, StatKey{1, models.ModelGrok}, StatKey{sorted[1].Week, sorted[1].Model})
	assert.Equal(t, StatKey{2, models.ModelClaude}, StatKey{sorted[2].Week, sorted[2].Model})
}

func TestAggregateCategoryWeeks_MentionsMatchRecords(t *testing.T) {
	records := []models.ResponseRecord{
		rec(3, models.ModelOpenAI, "p1", "vertical", 2),
		rec(3, models.ModelGemini, "p1", "vertical", 0),
		rec(3, models.ModelGrok, "p2", "competitor", 1),
		rec(3, models.ModelClaude, "p2", "competitor", 5),
		rec(4, models.ModelClaude, "p2", "competitor", 0),
	}

	stats := AggregateCategoryWeeks(records)

	expected := map[string]int{}
	for _, r := range records {
		if r.ExecutionWeek == 3 && r.MentionCount > 0 {
			expected[r.PromptCategory]++
		}
	}
	got := map[string]int{}
	for _, s := range stats {
		if s.Week == 3 {
			got[s.Category] += s.Mentions
		}
	}
	assert.Equal(t, expected, got)

	require.Len(t, stats, 3)
	assert.Equal(t, models.CategoryWeekStat{Category: "competitor", Week: 3, Total: 2, Mentions: 2, MentionRate: 100}, stats[0])
	assert.Equal(t, models.CategoryWeekStat{Category: "competitor", Week: 4, Total: 1, Mentions: 0, MentionRate: 0}, stats[1])
	assert.Equal(t, models.CategoryWeekStat{Category: "vertical", Week: 3, Total: 2, Mentions: 1, MentionRate: 50}, stats[2])
}

func TestWeeks(t *testing.T) {
	records := []models.ResponseRecord{
		rec(5, models.ModelOpenAI, "p1", "c", 0),
		rec(2, models.ModelOpenAI, "p1", "c", 0),
		rec(5, models.ModelGrok, "p1", "c", 0),
	}
	assert.Equal(t, []int{2, 5}, Weeks(records))
	assert.Equal(t, []int{}, Weeks(nil))
}
