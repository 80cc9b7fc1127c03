package cli

import "fmt"

// ANSI escape codes
const (
	Reset = "\033[0m"

	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
	dim    = "\033[2m"
)

// Report styles
var (
	HeaderStyle  = cyan + bold
	TitleStyle   = blue + bold
	SuccessStyle = green + bold
	WarningStyle = yellow + bold
	InfoStyle    = blue + bold
	LabelStyle   = cyan
	DimStyle     = dim
	CountStyle   = yellow + bold

	// heat map cells and rate bands
	HitStyle  = green + bold
	MissStyle = red + bold
	HotStyle  = green + bold
	WarmStyle = yellow + bold
	ColdStyle = red + bold
)

func FormatValue(text string) string {
	return bold + text + Reset
}

func FormatCount(count int) string {
	return CountStyle + fmt.Sprintf("%d", count) + Reset
}

func FormatDim(text string) string {
	return DimStyle + text + Reset
}

// FormatLabelValue formats a label-value pair
func FormatLabelValue(label, value string) string {
	return LabelStyle + label + Reset + " " + FormatValue(value)
}

// FormatCountLabel formats a count with label
func FormatCountLabel(label string, count int) string {
	return LabelStyle + label + Reset + " " + FormatCount(count)
}
