package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AI2HU/heatmap/internal/models"
)

var (
	// ErrInvalidInput means the input is not a collection of records at all
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedRecord means a single record failed validation and was skipped
	ErrMalformedRecord = errors.New("malformed record")
)

// maxReportedIssues caps the issues kept in a Result; Skipped still counts every row
const maxReportedIssues = 50

// Options controls record validation
type Options struct {
	// Categories restricts prompt_category to a fixed set (case-insensitive). Empty accepts any.
	Categories []string
}

// Result is the outcome of normalizing a batch
type Result struct {
	Records []models.ResponseRecord
	Skipped int
	Issues  []models.RecordIssue
}

// Normalizer validates raw rows and coerces them into ResponseRecords
type Normalizer struct {
	categories map[string]string // lower-case -> canonical
}

// New creates a normalizer
func New(opts Options) *Normalizer {
	n := &Normalizer{}
	if len(opts.Categories) > 0 {
		n.categories = make(map[string]string, len(opts.Categories))
		for _, c := range opts.Categories {
			c = strings.TrimSpace(c)
			if c != "" {
				n.categories[strings.ToLower(c)] = c
			}
		}
	}
	return n
}

// Normalize converts a batch, skipping malformed rows
func (n *Normalizer) Normalize(raw []models.RawRecord) Result {
	result := Result{Records: make([]models.ResponseRecord, 0, len(raw))}
	for i, row := range raw {
		record, err := n.Record(row)
		if err != nil {
			result.Skipped++
			if len(result.Issues) < maxReportedIssues {
				result.Issues = append(result.Issues, models.RecordIssue{
					Index:  i,
					ID:     row.ID.String(),
					Reason: err.Error(),
				})
			}
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result
}

// Record validates a single row. Errors wrap ErrMalformedRecord.
func (n *Normalizer) Record(row models.RawRecord) (models.ResponseRecord, error) {
	if row.DecodeError != "" {
		return models.ResponseRecord{}, malformed("undecodable row: %s", row.DecodeError)
	}
	id := strings.TrimSpace(row.ID.String())
	if id == "" {
		return models.ResponseRecord{}, malformed("missing id")
	}
	if row.ExecutionWeek == nil {
		return models.ResponseRecord{}, malformed("missing execution_week")
	}
	if *row.ExecutionWeek < 1 {
		return models.ResponseRecord{}, malformed("execution_week must be >= 1, got %d", *row.ExecutionWeek)
	}
	promptID := strings.TrimSpace(row.PromptID)
	if promptID == "" {
		return models.ResponseRecord{}, malformed("missing prompt_id")
	}
	category, err := n.category(row.PromptCategory)
	if err != nil {
		return models.ResponseRecord{}, err
	}
	model, err := models.ParseModelName(row.ModelName)
	if err != nil {
		return models.ResponseRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if row.Mentions == nil {
		return models.ResponseRecord{}, malformed("missing inecta_mentions")
	}
	if *row.Mentions < 0 {
		return models.ResponseRecord{}, malformed("inecta_mentions must be >= 0, got %d", *row.Mentions)
	}

	record := models.ResponseRecord{
		ID:              id,
		ExecutionID:     row.ExecutionID,
		ExecutionWeek:   *row.ExecutionWeek,
		PromptID:        promptID,
		PromptCategory:  category,
		PromptText:      row.PromptText,
		ModelName:       model,
		MentionCount:    *row.Mentions,
		SentimentScore:  row.Sentiment,
		RawResponseText: row.ModelResponses,
		Metadata:        passThrough(row),
	}

	if record.ExecutionDate, err = parseTime(row.ExecutionDate, "execution_date"); err != nil {
		return models.ResponseRecord{}, err
	}
	if record.Timestamp, err = parseTime(row.Timestamp, "timestamp"); err != nil {
		return models.ResponseRecord{}, err
	}

	// A ranking only carries meaning for mentioned responses.
	if row.Ranking != nil && record.MentionCount > 0 {
		if *row.Ranking < 1 {
			return models.ResponseRecord{}, malformed("inecta_ranking must be >= 1, got %d", *row.Ranking)
		}
		ranking := *row.Ranking
		record.RankingWhenMentioned = &ranking
	}

	return record, nil
}

func (n *Normalizer) category(raw string) (string, error) {
	category := strings.TrimSpace(raw)
	if category == "" {
		return "", malformed("missing prompt_category")
	}
	if n.categories == nil {
		return category, nil
	}
	canonical, ok := n.categories[strings.ToLower(category)]
	if !ok {
		return "", malformed("unknown prompt_category %q", category)
	}
	return canonical, nil
}

// DecodeRecords parses a JSON array of raw rows. Anything other than an array is
// structurally invalid and wraps ErrInvalidInput; an element that is not an object
// is kept as a row carrying DecodeError and skipped by validation.
func DecodeRecords(data []byte) ([]models.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array of records", ErrInvalidInput)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rows := make([]models.RawRecord, len(elements))
	for i, element := range elements {
		element = bytes.TrimSpace(element)
		if len(element) == 0 || element[0] != '{' {
			rows[i].DecodeError = "element is not an object"
			continue
		}
		// A field of the wrong type is a data-quality problem, not a shape problem:
		// the row is kept and rejected by validation.
		if err := json.Unmarshal(element, &rows[i]); err != nil {
			rows[i].DecodeError = err.Error()
		}
	}
	return rows, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, malformed("%s is not an ISO-8601 date: %q", field, raw)
}

func passThrough(row models.RawRecord) map[string]interface{} {
	blobs := map[string]interface{}{
		"citations":  row.Citations,
		"vendors":    row.Vendors,
		"features":   row.Features,
		"risk_flags": row.RiskFlags,
	}
	for k, v := range blobs {
		if v == nil {
			delete(blobs, k)
		}
	}
	if len(blobs) == 0 {
		return nil
	}
	return blobs
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}
