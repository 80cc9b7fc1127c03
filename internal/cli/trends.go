package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AI2HU/heatmap/internal/models"
)

var (
	trendsWeek   int
	trendsWindow int
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Compare category mention rates against their trailing average",
	Long: `Compare each prompt category's mention rate at one execution week with its
average over the preceding weeks. Defaults to the latest week and the configured window.`,
	RunE: runTrends,
}

func init() {
	trendsCmd.Flags().IntVarP(&trendsWeek, "week", "w", 0, "Execution week to report (default latest)")
	trendsCmd.Flags().IntVar(&trendsWindow, "window", 0, "Trailing window in weeks (default from config)")
}

func runTrends(cmd *cobra.Command, args []string) error {
	if err := loadSnapshot(cmd.Context()); err != nil {
		return err
	}

	week := trendsWeek
	if week == 0 {
		week = engine.LatestWeek()
	}
	if week == 0 {
		fmt.Printf("%sNo execution weeks found.%s\n", WarningStyle, Reset)
		return nil
	}

	window := trendsWindow
	if window == 0 {
		window = engine.TrailingWindow()
	}

	rows, err := engine.ComputeCategoryTrends(week, window)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("%sNo categories found for week %d.%s\n", WarningStyle, week, Reset)
		return nil
	}

	fmt.Printf("%s🔥 Category Trends%s\n", HeaderStyle, Reset)
	fmt.Printf("%s=================%s\n", DimStyle, Reset)
	fmt.Println(FormatLabelValue("Week:", fmt.Sprintf("%d", week)))
	fmt.Println(FormatLabelValue("Window:", fmt.Sprintf("%d weeks", window)))
	fmt.Println()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%sCATEGORY\tCURRENT\tTRAILING\tDELTA\tTREND%s\n", LabelStyle, Reset)
	fmt.Fprintf(w, "%s────────\t───────\t────────\t─────\t─────%s\n", DimStyle, Reset)
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%.1f%%\t%.1f%%\t%+.1f\t%s\n",
			FormatValue(row.Category),
			row.CurrentRate,
			row.TrailingAvgRate,
			row.Delta,
			formatTrend(row.Trend),
		)
	}
	return w.Flush()
}

func formatTrend(trend models.TrendSymbol) string {
	switch trend {
	case models.TrendStrongUp, models.TrendUp:
		return HitStyle + trend.Arrow() + Reset
	case models.TrendStrongDown, models.TrendDown:
		return MissStyle + trend.Arrow() + Reset
	default:
		return FormatDim(trend.Arrow())
	}
}
