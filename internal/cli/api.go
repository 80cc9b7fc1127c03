package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AI2HU/heatmap/internal/api"
	"github.com/AI2HU/heatmap/internal/logger"
	"github.com/AI2HU/heatmap/internal/scheduler"
)

var (
	apiPort    string
	apiHost    string
	corsOrigin string
	noRefresh  bool
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the heat map REST API server",
	Long: `Start the read-only heat map REST API server.

The record set is loaded once at startup and refreshed on the loader's
refresh_cron schedule, or on demand with POST /api/v1/reload.`,
	RunE: runAPI,
}

func init() {
	apiCmd.Flags().StringVarP(&apiPort, "port", "p", "", "Port to run the API server on (overrides config)")
	apiCmd.Flags().StringVarP(&apiHost, "host", "H", "", "Host to bind the API server to (overrides config)")
	apiCmd.Flags().StringVarP(&corsOrigin, "cors-origin", "c", "", "CORS origin to allow (overrides config file, use '*' for all origins)")
	apiCmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Disable the scheduled refresh")
}

func runAPI(cmd *cobra.Command, args []string) error {
	host := firstNonEmpty(apiHost, cfg.API.Host, "0.0.0.0")
	port := firstNonEmpty(apiPort, cfg.API.Port, "8989")
	origin := firstNonEmpty(corsOrigin, cfg.API.CORSOrigin, "*")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s🚀 Starting Heatmap API Server%s\n", HeaderStyle, Reset)
	fmt.Printf("%s==============================%s\n", DimStyle, Reset)
	fmt.Println(FormatLabelValue("Source:", cfg.Database.Provider))
	fmt.Println(FormatLabelValue("CORS Origin:", origin))
	fmt.Println(FormatLabelValue("URL:", fmt.Sprintf("http://%s:%s/api/v1", host, port)))
	fmt.Println()

	if err := source.Ping(ctx); err != nil {
		return fmt.Errorf("record source ping failed: %w", err)
	}

	if err := loadSnapshot(ctx); err != nil {
		// the server still starts; /reload or the next refresh can recover
		logger.Error("Initial load failed: %v", err)
	} else {
		info := engine.Info()
		fmt.Printf("%s✅ Loaded %s records across %s weeks%s\n", SuccessStyle, FormatCount(info.Records), FormatCount(len(info.Weeks)), Reset)
	}

	opts := api.Options{
		Refresher:  ldr,
		Source:     source,
		CORSOrigin: origin,
	}

	if !noRefresh && cfg.Loader.RefreshCron != "" {
		sched := scheduler.New(ldr, cfg.Loader.RefreshCron)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
		opts.Schedule = sched
	}

	server := api.NewServer(engine, opts)

	fmt.Println()
	fmt.Printf("%s📚 Available Endpoints:%s\n", TitleStyle, Reset)
	fmt.Println("    GET    /api/v1/health            - Health and snapshot info")
	fmt.Println("    POST   /api/v1/reload            - Reload records (?from_week=&to_week=)")
	fmt.Println("    GET    /api/v1/schema            - JSON schema of a record export")
	fmt.Println("    GET    /api/v1/heatmap/weeks     - Execution weeks")
	fmt.Println("    GET    /api/v1/heatmap/stats     - Weekly mention rate per model")
	fmt.Println("    GET    /api/v1/heatmap/trends    - Category trends (?week=&window=)")
	fmt.Println("    GET    /api/v1/heatmap/matrix    - Prompt matrix (?week=&category=&q=&only_misses=)")
	fmt.Println("    GET    /api/v1/heatmap/series    - Mention rate series per model")
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop the server")

	address := fmt.Sprintf("%s:%s", host, port)
	if err := server.Run(ctx, address); err != nil {
		return fmt.Errorf("api server failed: %w", err)
	}

	fmt.Printf("\n%s🛑 API server stopped%s\n", InfoStyle, Reset)
	return nil
}
