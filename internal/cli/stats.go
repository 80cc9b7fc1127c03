package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AI2HU/heatmap/internal/models"
)

var statsWeek int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View weekly mention rates per model",
	Long:  `View mention count, mention rate and average ranking of every model for each execution week.`,
	RunE:  runStats,
}

var weeksCmd = &cobra.Command{
	Use:   "weeks",
	Short: "List execution weeks",
	Long:  `List the execution weeks present in the record set with their record counts.`,
	RunE:  runWeeks,
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "View mention rate series per model",
	Long:  `View one row per execution week with the mention rate of every model, ready for charting.`,
	RunE:  runSeries,
}

func init() {
	statsCmd.Flags().IntVarP(&statsWeek, "week", "w", 0, "Only show this execution week")
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := loadSnapshot(cmd.Context()); err != nil {
		return err
	}

	stats := engine.ComputeWeeklyStats()
	if statsWeek > 0 {
		filtered := stats[:0]
		for _, stat := range stats {
			if stat.Week == statsWeek {
				filtered = append(filtered, stat)
			}
		}
		stats = filtered
	}

	if len(stats) == 0 {
		fmt.Printf("%sNo response statistics available yet.%s\n", WarningStyle, Reset)
		return nil
	}

	fmt.Printf("%s📊 Weekly Mention Rates%s\n", HeaderStyle, Reset)
	fmt.Printf("%s======================%s\n", DimStyle, Reset)
	fmt.Println()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%sWEEK\tMODEL\tRESPONSES\tMENTIONS\tRATE\tAVG RANK%s\n", LabelStyle, Reset)
	fmt.Fprintf(w, "%s────\t─────\t─────────\t────────\t────\t────────%s\n", DimStyle, Reset)

	week := 0
	for _, stat := range stats {
		weekLabel := ""
		if stat.Week != week {
			week = stat.Week
			weekLabel = fmt.Sprintf("%d", week)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			weekLabel,
			FormatValue(string(stat.Model)),
			stat.TotalResponses,
			FormatCount(stat.MentionCount),
			formatRate(stat.MentionRate),
			formatRanking(stat.AvgRanking),
		)
	}

	return w.Flush()
}

func runWeeks(cmd *cobra.Command, args []string) error {
	if err := loadSnapshot(cmd.Context()); err != nil {
		return err
	}

	weeks := engine.Weeks()
	if len(weeks) == 0 {
		fmt.Printf("%sNo execution weeks found.%s\n", WarningStyle, Reset)
		return nil
	}

	counts := make(map[int]int, len(weeks))
	for _, record := range engine.Snapshot().Records() {
		counts[record.ExecutionWeek]++
	}

	fmt.Printf("%s📅 Execution Weeks%s\n", HeaderStyle, Reset)
	fmt.Printf("%s=================%s\n", DimStyle, Reset)
	fmt.Println()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%sWEEK\tRECORDS%s\n", LabelStyle, Reset)
	fmt.Fprintf(w, "%s────\t───────%s\n", DimStyle, Reset)
	for _, week := range weeks {
		fmt.Fprintf(w, "%d\t%s\n", week, FormatCount(counts[week]))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(FormatLabelValue("Latest week:", fmt.Sprintf("%d", engine.LatestWeek())))
	return nil
}

func runSeries(cmd *cobra.Command, args []string) error {
	if err := loadSnapshot(cmd.Context()); err != nil {
		return err
	}

	series := engine.BuildTrendSeries()
	if len(series) == 0 {
		fmt.Printf("%sNo response statistics available yet.%s\n", WarningStyle, Reset)
		return nil
	}

	fmt.Printf("%s📈 Mention Rate Series%s\n", HeaderStyle, Reset)
	fmt.Printf("%s=====================%s\n", DimStyle, Reset)
	fmt.Println()

	return writeSeries(cmd.OutOrStdout(), series)
}

// writeSeries prints one column per model
func writeSeries(out io.Writer, series []models.WeekSeries) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "WEEK")
	for _, model := range models.AllModelNames {
		fmt.Fprintf(w, "\t%s", model)
	}
	fmt.Fprintln(w)

	for _, point := range series {
		fmt.Fprintf(w, "%d", point.Week)
		for _, model := range models.AllModelNames {
			rate, ok := point.Rates[model]
			if !ok {
				fmt.Fprint(w, "\t-")
				continue
			}
			fmt.Fprintf(w, "\t%.1f%%", rate)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func formatRate(rate float64) string {
	style := HotStyle
	switch {
	case rate < 25:
		style = ColdStyle
	case rate < 50:
		style = WarmStyle
	}
	return style + fmt.Sprintf("%.1f%%", rate) + Reset
}

func formatRanking(avg float64) string {
	if avg == 0 {
		return FormatDim("-")
	}
	return fmt.Sprintf("%.2f", avg)
}
