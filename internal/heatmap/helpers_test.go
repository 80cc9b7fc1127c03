package heatmap

import (
	"fmt"

	"github.com/AI2HU/heatmap/internal/models"
)

var recordSeq int

func rec(week int, model models.ModelName, promptID, category string, mentions int) models.ResponseRecord {
	recordSeq++
	return models.ResponseRecord{
		ID:             fmt.Sprintf("r%d", recordSeq),
		ExecutionWeek:  week,
		PromptID:       promptID,
		PromptCategory: category,
		PromptText:     "text of " + promptID,
		ModelName:      model,
		MentionCount:   mentions,
	}
}

func ranked(r models.ResponseRecord, ranking int) models.ResponseRecord {
	r.RankingWhenMentioned = &ranking
	return r
}
