package models

import "strings"

// SlotStatus is the state of one model within a prompt group
type SlotStatus string

const (
	StatusHit        SlotStatus = "hit"         // responded and mentioned
	StatusMiss       SlotStatus = "miss"        // responded, not mentioned
	StatusNoResponse SlotStatus = "no_response" // no record for this model
)

// PromptGroup collects the per-model responses sharing one prompt ID
type PromptGroup struct {
	PromptID  string                       `json:"prompt_id"`
	Category  string                       `json:"category"`
	Text      string                       `json:"text"`
	Responses map[ModelName]ResponseRecord `json:"responses"`
	// Inconsistent is set when records of this prompt disagreed on category or text.
	Inconsistent bool `json:"inconsistent,omitempty"`
}

// Status returns the tri-state slot status for a model
func (g PromptGroup) Status(model ModelName) SlotStatus {
	record, ok := g.Responses[model]
	if !ok {
		return StatusNoResponse
	}
	if record.Mentioned() {
		return StatusHit
	}
	return StatusMiss
}

// Slots returns the status of every known model
func (g PromptGroup) Slots() map[ModelName]SlotStatus {
	slots := make(map[ModelName]SlotStatus, len(AllModelNames))
	for _, model := range AllModelNames {
		slots[model] = g.Status(model)
	}
	return slots
}

// MissCount counts models that responded without a mention
func (g PromptGroup) MissCount() int {
	return g.count(StatusMiss)
}

// HitCount counts models that responded with a mention
func (g PromptGroup) HitCount() int {
	return g.count(StatusHit)
}

func (g PromptGroup) count(status SlotStatus) int {
	n := 0
	for _, model := range AllModelNames {
		if g.Status(model) == status {
			n++
		}
	}
	return n
}

// MatrixFilter narrows the prompt groups returned by the matrix builder
type MatrixFilter struct {
	Categories []string `json:"categories,omitempty"` // OR-matched, empty means all
	SearchText string   `json:"search_text,omitempty"`
	OnlyMisses bool     `json:"only_misses,omitempty"`
}

// MatchesCategory reports whether the category passes the filter
func (f MatrixFilter) MatchesCategory(category string) bool {
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if strings.EqualFold(strings.TrimSpace(c), category) {
			return true
		}
	}
	return false
}

// MatchesSearch reports whether the prompt text or category contains the search text
func (f MatrixFilter) MatchesSearch(text, category string) bool {
	needle := strings.ToLower(strings.TrimSpace(f.SearchText))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), needle) ||
		strings.Contains(strings.ToLower(category), needle)
}
