package models

import (
	"fmt"
	"strings"
	"time"
)

// Core domain models

// ModelName identifies the AI model that produced a response
type ModelName string

const (
	ModelOpenAI ModelName = "openai"
	ModelGemini ModelName = "gemini"
	ModelGrok   ModelName = "grok"
	ModelClaude ModelName = "claude"
)

// AllModelNames lists every known model in display order
var AllModelNames = []ModelName{ModelOpenAI, ModelGemini, ModelGrok, ModelClaude}

// ParseModelName validates a raw model name. Matching ignores case and surrounding whitespace.
func ParseModelName(raw string) (ModelName, error) {
	name := ModelName(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllModelNames {
		if name == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown model name: %q", raw)
}

// Index returns the position of the model in AllModelNames, or -1
func (m ModelName) Index() int {
	for i, known := range AllModelNames {
		if m == known {
			return i
		}
	}
	return -1
}

// ResponseRecord is one AI model's response to one prompt in one execution week
type ResponseRecord struct {
	ID                   string                 `json:"id"`
	ExecutionID          string                 `json:"execution_id,omitempty"`
	ExecutionDate        *time.Time             `json:"execution_date,omitempty"`
	ExecutionWeek        int                    `json:"execution_week"`
	PromptID             string                 `json:"prompt_id"`
	PromptCategory       string                 `json:"prompt_category"`
	PromptText           string                 `json:"prompt_text"`
	ModelName            ModelName              `json:"model_name"`
	MentionCount         int                    `json:"mention_count"`
	SentimentScore       *float64               `json:"sentiment_score,omitempty"`
	RankingWhenMentioned *int                   `json:"ranking_when_mentioned,omitempty"` // nil unless MentionCount > 0
	RawResponseText      string                 `json:"raw_response_text,omitempty"`
	Timestamp            *time.Time             `json:"timestamp,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"` // opaque pass-through blobs
}

// Clone returns a copy that shares no memory with r
func (r ResponseRecord) Clone() ResponseRecord {
	if r.ExecutionDate != nil {
		t := *r.ExecutionDate
		r.ExecutionDate = &t
	}
	if r.Timestamp != nil {
		t := *r.Timestamp
		r.Timestamp = &t
	}
	if r.SentimentScore != nil {
		v := *r.SentimentScore
		r.SentimentScore = &v
	}
	if r.RankingWhenMentioned != nil {
		v := *r.RankingWhenMentioned
		r.RankingWhenMentioned = &v
	}
	if r.Metadata != nil {
		r.Metadata = cloneValue(r.Metadata).(map[string]interface{})
	}
	return r
}

// cloneValue copies decoded JSON/BSON values; scalars are returned as is
func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Mentioned reports whether the target brand appeared in the response
func (r ResponseRecord) Mentioned() bool {
	return r.MentionCount > 0
}

// RawRecord is a response row as stored upstream, before validation
type RawRecord struct {
	ID             RecordID    `json:"id" bson:"id" jsonschema:"oneof_type=string;integer"`
	ExecutionID    string      `json:"execution_id,omitempty" bson:"execution_id,omitempty"`
	ExecutionDate  string      `json:"execution_date,omitempty" bson:"execution_date,omitempty" jsonschema:"format=date"`
	ExecutionWeek  *int        `json:"execution_week" bson:"execution_week" jsonschema:"minimum=1"`
	PromptID       string      `json:"prompt_id" bson:"prompt_id"`
	PromptCategory string      `json:"prompt_category" bson:"prompt_category"`
	PromptText     string      `json:"prompt_text,omitempty" bson:"prompt_text,omitempty"`
	ModelName      string      `json:"model_name" bson:"model_name" jsonschema:"enum=openai,enum=gemini,enum=grok,enum=claude"`
	ModelResponses string      `json:"model_responses,omitempty" bson:"model_responses,omitempty"`
	Mentions       *int        `json:"inecta_mentions" bson:"inecta_mentions" jsonschema:"minimum=0"`
	Sentiment      *float64    `json:"inecta_sentiment,omitempty" bson:"inecta_sentiment,omitempty"`
	Ranking        *int        `json:"inecta_ranking,omitempty" bson:"inecta_ranking,omitempty" jsonschema:"minimum=1"`
	Timestamp      string      `json:"timestamp,omitempty" bson:"timestamp,omitempty" jsonschema:"format=date-time"`
	Citations      interface{} `json:"citations,omitempty" bson:"citations,omitempty"`
	Vendors        interface{} `json:"vendors,omitempty" bson:"vendors,omitempty"`
	Features       interface{} `json:"features,omitempty" bson:"features,omitempty"`
	RiskFlags      interface{} `json:"risk_flags,omitempty" bson:"risk_flags,omitempty"`

	// DecodeError is set by sources that could not decode every field of the row.
	DecodeError string `json:"-" bson:"-"`
}
