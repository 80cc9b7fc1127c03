package heatmap

import (
	"sort"

	"github.com/AI2HU/heatmap/internal/logger"
	"github.com/AI2HU/heatmap/internal/models"
)

// AllWeeks selects records from every execution week
const AllWeeks = 0

// BuildMatrix groups records by prompt, applies the filter and orders groups by
// miss count descending, then prompt ID ascending.
//
// Each model fills at most one slot per group. When several records compete for a
// slot (duplicates, or AllWeeks across weeks) the latest week wins, and on equal
// weeks the record appearing later in the input wins.
func BuildMatrix(records []models.ResponseRecord, week int, filter models.MatrixFilter) []models.PromptGroup {
	log := logger.Component("matrix")

	groups := make(map[string]*models.PromptGroup)
	order := []string{}
	duplicates := 0

	for _, record := range records {
		if week != AllWeeks && record.ExecutionWeek != week {
			continue
		}

		group, ok := groups[record.PromptID]
		if !ok {
			group = &models.PromptGroup{
				PromptID:  record.PromptID,
				Category:  record.PromptCategory,
				Text:      record.PromptText,
				Responses: make(map[models.ModelName]models.ResponseRecord),
			}
			groups[record.PromptID] = group
			order = append(order, record.PromptID)
		} else if !group.Inconsistent && (group.Category != record.PromptCategory || group.Text != record.PromptText) {
			group.Inconsistent = true
			log.Warning("Prompt %s has conflicting category/text (record %s): keeping %q", record.PromptID, record.ID, group.Category)
		}

		if existing, taken := group.Responses[record.ModelName]; taken {
			if existing.ExecutionWeek > record.ExecutionWeek {
				continue
			}
			if existing.ExecutionWeek == record.ExecutionWeek {
				duplicates++
				log.Debug("Duplicate %s response for prompt %s in week %d: %s replaces %s",
					record.ModelName, record.PromptID, record.ExecutionWeek, record.ID, existing.ID)
			}
		}
		group.Responses[record.ModelName] = record.Clone()
	}

	if duplicates > 0 {
		log.Warning("Replaced %d duplicate responses while grouping prompts", duplicates)
	}

	results := make([]models.PromptGroup, 0, len(order))
	for _, promptID := range order {
		group := groups[promptID]
		if !filter.MatchesCategory(group.Category) {
			continue
		}
		if !filter.MatchesSearch(group.Text, group.Category) {
			continue
		}
		if filter.OnlyMisses && group.MissCount() == 0 {
			continue
		}
		results = append(results, *group)
	}

	sort.SliceStable(results, func(i, j int) bool {
		mi, mj := results[i].MissCount(), results[j].MissCount()
		if mi != mj {
			return mi > mj
		}
		return results[i].PromptID < results[j].PromptID
	})

	log.Debug("Built matrix for week %d: %d of %d prompt groups kept", week, len(results), len(order))
	return results
}
