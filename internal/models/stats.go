package models

// Derived analytics models. All of them are recomputed from a record snapshot on demand.

// WeeklyModelStat holds mention statistics for one model in one execution week
type WeeklyModelStat struct {
	Week           int       `json:"week"`
	Model          ModelName `json:"model"`
	TotalResponses int       `json:"total_responses"`
	MentionCount   int       `json:"mention_count"`
	MentionRate    float64   `json:"mention_rate"` // 0-100
	AvgRanking     float64   `json:"avg_ranking"`  // 0 when no mentioned record carried a ranking
}

// CategoryWeekStat holds mention statistics for one prompt category in one execution week
type CategoryWeekStat struct {
	Category    string  `json:"category"`
	Week        int     `json:"week"`
	Total       int     `json:"total"`
	Mentions    int     `json:"mentions"`
	MentionRate float64 `json:"mention_rate"`
}

// TrendSymbol classifies the delta between the current and trailing mention rate
type TrendSymbol string

const (
	TrendStrongUp   TrendSymbol = "strong-up"
	TrendUp         TrendSymbol = "up"
	TrendFlat       TrendSymbol = "flat"
	TrendDown       TrendSymbol = "down"
	TrendStrongDown TrendSymbol = "strong-down"
)

// Arrow returns a compact glyph for terminal output
func (t TrendSymbol) Arrow() string {
	switch t {
	case TrendStrongUp:
		return "↑↑"
	case TrendUp:
		return "↑"
	case TrendFlat:
		return "→"
	case TrendDown:
		return "↓"
	case TrendStrongDown:
		return "↓↓"
	default:
		return "?"
	}
}

// CategoryTrendRow compares a category's rate at the selected week with its trailing average
type CategoryTrendRow struct {
	Category        string      `json:"category"`
	CurrentRate     float64     `json:"current_rate"`
	TrailingAvgRate float64     `json:"trailing_avg_rate"`
	Delta           float64     `json:"delta"`
	Trend           TrendSymbol `json:"trend"`
}

// WeekSeries is one chart point: the mention rate of every model at a week
type WeekSeries struct {
	Week  int                   `json:"week"`
	Rates map[ModelName]float64 `json:"rates"`
}
