package shared

// RecordFilter narrows the rows a record source returns
type RecordFilter struct {
	MinWeek int // inclusive, 0 means unbounded
	MaxWeek int // inclusive, 0 means unbounded
	Limit   int // 0 means no limit
}

// MatchesWeek reports whether a week falls inside the filter's range
func (f RecordFilter) MatchesWeek(week int) bool {
	if f.MinWeek > 0 && week < f.MinWeek {
		return false
	}
	if f.MaxWeek > 0 && week > f.MaxWeek {
		return false
	}
	return true
}
