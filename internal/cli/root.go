package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AI2HU/heatmap/internal/config"
	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/heatmap"
	"github.com/AI2HU/heatmap/internal/loader"
	"github.com/AI2HU/heatmap/internal/logger"
	"github.com/AI2HU/heatmap/internal/shared"
)

var (
	cfgFile  string
	logLevel string
	fromWeek int
	toWeek   int

	cfg    *config.Config
	source db.RecordSource
	engine *heatmap.Engine
	ldr    *loader.Loader
)

// commands that run without a config file or record source
var standalone = map[string]bool{
	"init":   true,
	"schema": true,
	"help":   true,
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Competition heat map for AI model responses",
	Long: `Heatmap turns per-prompt, per-model response records into a competition heat map:
weekly mention rates and rankings per model, category trends against a trailing
window, and a cross-model matrix of hits and misses per prompt.

Records are read from SQLite, PostgreSQL, MongoDB or a JSON export.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if standalone[cmd.Name()] {
			return nil
		}

		if cfgFile == "" {
			cfgFile = config.GetConfigPath()
		}
		if !config.Exists(cfgFile) {
			return fmt.Errorf("configuration file not found at %s. Run 'heatmap init' to create one", cfgFile)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger.Init(logger.ParseLogLevel(level), os.Stderr)

		source, err = newSource(cfg.DBConfig())
		if err != nil {
			return fmt.Errorf("failed to create record source: %w", err)
		}
		if err := source.Connect(cmd.Context()); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", cfg.Database.Provider, err)
		}

		engine = heatmap.NewEngine(heatmap.Options{
			Categories:     cfg.Engine.Categories,
			TrailingWindow: cfg.Engine.TrailingWindow,
		})
		ldr = loader.New(source, engine, loader.Options{
			MaxRetries: cfg.Loader.MaxRetries,
			RetryDelay: cfg.Loader.RetryDelay,
			RateLimit:  cfg.Loader.RateLimit,
			Filter:     shared.RecordFilter{MinWeek: fromWeek, MaxWeek: toWeek},
		})

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ldr != nil {
			ldr.Stop()
		}
		if source != nil {
			return source.Disconnect(context.Background())
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.heatmap/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warning, error (overrides config)")
	rootCmd.PersistentFlags().IntVar(&fromWeek, "from-week", 0, "only load records from this execution week on")
	rootCmd.PersistentFlags().IntVar(&toWeek, "to-week", 0, "only load records up to this execution week")

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(weeksCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(schemaCmd)
}

// loadSnapshot fetches the record set once for the one-shot report commands
func loadSnapshot(ctx context.Context) error {
	report, err := ldr.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	if report.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "%s⚠️  Skipped %d of %d records (run with --log-level debug for details)%s\n",
			WarningStyle, report.Skipped, report.Received, Reset)
	}
	return nil
}
