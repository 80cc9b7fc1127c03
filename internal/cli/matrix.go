package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AI2HU/heatmap/internal/heatmap"
	"github.com/AI2HU/heatmap/internal/models"
)

var (
	matrixWeek       string
	matrixCategories []string
	matrixSearch     string
	matrixOnlyMisses bool
	matrixLimit      int
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "View the cross-model prompt matrix",
	Long: `View every prompt with the status of each model: hit (mentioned), miss
(responded without a mention) or no response. Prompts with the most misses come first.`,
	RunE: runMatrix,
}

func init() {
	matrixCmd.Flags().StringVarP(&matrixWeek, "week", "w", "", "Execution week, or 'all' (default latest)")
	matrixCmd.Flags().StringSliceVarP(&matrixCategories, "category", "C", nil, "Only show these categories (repeatable)")
	matrixCmd.Flags().StringVarP(&matrixSearch, "search", "s", "", "Only show prompts whose text or category contains this")
	matrixCmd.Flags().BoolVar(&matrixOnlyMisses, "only-misses", false, "Only show prompts with at least one miss")
	matrixCmd.Flags().IntVarP(&matrixLimit, "limit", "l", 0, "Limit number of prompts (0 shows all)")
}

func runMatrix(cmd *cobra.Command, args []string) error {
	if err := loadSnapshot(cmd.Context()); err != nil {
		return err
	}

	week, err := parseMatrixWeek(matrixWeek, engine.LatestWeek())
	if err != nil {
		return err
	}

	groups := engine.BuildMatrix(week, models.MatrixFilter{
		Categories: matrixCategories,
		SearchText: matrixSearch,
		OnlyMisses: matrixOnlyMisses,
	})
	if len(groups) == 0 {
		fmt.Printf("%sNo prompts match.%s\n", WarningStyle, Reset)
		return nil
	}

	total := len(groups)
	if matrixLimit > 0 && len(groups) > matrixLimit {
		groups = groups[:matrixLimit]
	}

	weekLabel := "all"
	if week != heatmap.AllWeeks {
		weekLabel = fmt.Sprintf("%d", week)
	}

	fmt.Printf("%s🗺️  Prompt Matrix%s\n", HeaderStyle, Reset)
	fmt.Printf("%s================%s\n", DimStyle, Reset)
	fmt.Println(FormatLabelValue("Week:", weekLabel))
	fmt.Println(FormatCountLabel("Prompts:", total))
	fmt.Println()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := []string{"PROMPT", "CATEGORY", "TEXT"}
	for _, model := range models.AllModelNames {
		header = append(header, strings.ToUpper(string(model)))
	}
	header = append(header, "MISSES")
	fmt.Fprintf(w, "%s%s%s\n", LabelStyle, strings.Join(header, "\t"), Reset)

	for _, group := range groups {
		cells := []string{
			group.PromptID,
			group.Category,
			truncateMiddle(strings.Join(strings.Fields(group.Text), " "), 48),
		}
		for _, model := range models.AllModelNames {
			cells = append(cells, formatSlot(group.Status(model)))
		}
		cells = append(cells, FormatCount(group.MissCount()))
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(groups) < total {
		fmt.Printf("\n%s... %d more prompts (use --limit 0 to show all)%s\n", DimStyle, total-len(groups), Reset)
	}
	return nil
}

// parseMatrixWeek resolves the --week flag; empty selects the latest week
func parseMatrixWeek(input string, latest int) (int, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return latest, nil
	case "all":
		return heatmap.AllWeeks, nil
	}
	week, err := validateNumber(input, 1, 1<<30)
	if err != nil {
		return 0, fmt.Errorf("invalid week: %w", err)
	}
	return week, nil
}

func formatSlot(status models.SlotStatus) string {
	switch status {
	case models.StatusHit:
		return HitStyle + "●" + Reset
	case models.StatusMiss:
		return MissStyle + "✗" + Reset
	default:
		return FormatDim("·")
	}
}
