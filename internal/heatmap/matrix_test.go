package heatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/heatmap/internal/models"
)

func promptIDs(groups []models.PromptGroup) []string {
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.PromptID
	}
	return ids
}

func TestBuildMatrix_Example(t *testing.T) {
	records := []models.ResponseRecord{
		rec(1, models.ModelOpenAI, "p1", "vertical", 1),
		rec(1, models.ModelGemini, "p1", "vertical", 0),
	}

	groups := BuildMatrix(records, 1, models.MatrixFilter{})
	require.Len(t, groups, 1)

	p1 := groups[0]
	assert.Equal(t, models.StatusHit, p1.Status(models.ModelOpenAI))
	assert.Equal(t, models.StatusMiss, p1.Status(models.ModelGemini))
	assert.Equal(t, models.StatusNoResponse, p1.Status(models.ModelGrok))
	assert.Equal(t, models.StatusNoResponse, p1.Status(models.ModelClaude))

	kept := BuildMatrix(records, 1, models.MatrixFilter{OnlyMisses: true})
	assert.Equal(t, []string{"p1"}, promptIDs(kept))
}

func TestBuildMatrix_SlotStatusExhaustive(t *testing.T) {
	records := []models.ResponseRecord{
		rec(1, models.ModelOpenAI, "p1", "c", 3),
		rec(1, models.ModelGrok, "p1", "c", 0),
	}

	group := BuildMatrix(records, 1, models.MatrixFilter{})[0]
	slots := group.Slots()
	require.Len(t, slots, len(models.AllModelNames))

	counts := map[models.SlotStatus]int{}
	for _, status := range slots {
		counts[status]++
	}
	assert.Equal(t, len(models.AllModelNames), counts[models.StatusHit]+counts[models.StatusMiss]+counts[models.StatusNoResponse])
	assert.Equal(t, 1, group.HitCount())
	assert.Equal(t, 1, group.MissCount())
}

func TestBuildMatrix_NoResponseIsNotAMiss(t *testing.T) {
	records := []models.ResponseRecord{
		rec(1, models.ModelOpenAI, "hits-only", "c", 1),
		rec(1, models.ModelOpenAI, "one-miss", "c", 0),
	}

	groups := BuildMatrix(records, 1, models.MatrixFilter{OnlyMisses: true})
	assert.Equal(t, []string{"one-miss"}, promptIDs(groups))
	for _, g := range groups {
		assert.Greater(t, g.MissCount(), 0)
	}
}

func TestBuildMatrix_SortByMissesThenPromptID(t *testing.T) {
	records := []models.ResponseRecord{
		rec(1, models.ModelOpenAI, "p-b", "c", 0),
		rec(1, models.ModelOpenAI, "p-c", "c", 0),
		rec(1, models.ModelGemini, "p-c", "c", 0),
		rec(1, models.ModelOpenAI, "p-a", "c", 0),
		rec(1, models.ModelOpenAI, "p-z", "c", 1),
	}

	groups := BuildMatrix(records, 1, models.MatrixFilter{})
	assert.Equal(t, []string{"p-c", "p-a", "p-b", "p-z"}, promptIDs(groups))
}

func TestBuildMatrix_WeekSelection(t *testing.T) {
	records := []models.ResponseRecord{
		rec(1, models.ModelOpenAI, "p1", "c", 0),
		rec(2, models.ModelOpenAI, "p1", "c", 4),
		rec(2, models.ModelGemini, "p2", "c", 0),
	}

	week1 := BuildMatrix(records, 1, models.MatrixFilter{})
	require.Len(t, week1, 1)
	assert.Equal(t, models.StatusMiss, week1[0].Status(models.ModelOpenAI))

	all := BuildMatrix(records, AllWeeks, models.MatrixFilter{})
	require.Len(t, all, 2)
	byID := map[string]models.PromptGroup{all[0].PromptID: all[0], all[1].PromptID: all[1]}
	assert.Equal(t, models.StatusHit, byID["p1"].Status(models.ModelOpenAI), "latest week wins across weeks")

	assert.Empty(t, BuildMatrix(records, 9, models.MatrixFilter{}))
}

func TestBuildMatrix_DuplicateSlotLaterRecordWins(t *testing.T) {
	first := rec(1, models.ModelClaude, "p1", "c", 0)
	second := rec(1, models.ModelClaude, "p1", "c", 2)

	groups := BuildMatrix([]models.ResponseRecord{first, second}, 1, models.MatrixFilter{})
	require.Len(t, groups, 1)
	assert.Equal(t, second.ID, groups[0].Responses[models.ModelClaude].ID)
}

func TestBuildMatrix_InconsistentGroupFlagged(t *testing.T) {
	a := rec(1, models.ModelOpenAI, "p1", "vertical", 0)
	b := rec(1, models.ModelGemini, "p1", "pricing", 0)

	groups := BuildMatrix([]models.ResponseRecord{a, b}, 1, models.MatrixFilter{})
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Inconsistent)
	assert.Equal(t, "vertical", groups[0].Category)
}

func TestBuildMatrix_Filters(t *testing.T) {
	records := []models.ResponseRecord{
		rec(1, models.ModelOpenAI, "p1", "vertical", 0),
		rec(1, models.ModelOpenAI, "p2", "Pricing", 0),
		rec(1, models.ModelOpenAI, "p3", "competitor", 1),
	}
	records[0].PromptText = "Best ERP for Dairy processors"
	records[1].PromptText = "How much does an ERP cost?"
	records[2].PromptText = "Inecta vs. competitors"

	byCategory := BuildMatrix(records, 1, models.MatrixFilter{Categories: []string{"pricing", "competitor"}})
	assert.Equal(t, []string{"p2", "p3"}, promptIDs(byCategory))

	bySearch := BuildMatrix(records, 1, models.MatrixFilter{SearchText: "dairy"})
	assert.Equal(t, []string{"p1"}, promptIDs(bySearch))

	searchMatchesCategory := BuildMatrix(records, 1, models.MatrixFilter{SearchText: "COMPET"})
	assert.Equal(t, []string{"p3"}, promptIDs(searchMatchesCategory))

	combined := BuildMatrix(records, 1, models.MatrixFilter{SearchText: "erp", OnlyMisses: true, Categories: []string{"vertical"}})
	assert.Equal(t, []string{"p1"}, promptIDs(combined))
}

func TestBuildMatrix_Empty(t *testing.T) {
	assert.Empty(t, BuildMatrix(nil, AllWeeks, models.MatrixFilter{OnlyMisses: true}))
}
