package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AI2HU/heatmap/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize heatmap configuration",
	Long:  `Interactive wizard to set up the record source, report defaults and refresh schedule.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("🚀 Welcome to Heatmap Setup")
	fmt.Println("===========================")
	fmt.Println()

	configPath := cfgFile
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	if config.Exists(configPath) {
		fmt.Printf("Configuration file already exists at: %s\n", configPath)
		confirmed, err := promptYesNo(reader, "Do you want to overwrite it? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()

	// Record source
	fmt.Println("\n📊 Record Source")
	fmt.Println("----------------")

	provider, err := promptWithRetry(reader, "Provider (sqlite/postgres/mongodb/file) [sqlite]: ", func(input string) (string, error) {
		if input == "" {
			return "sqlite", nil
		}
		return validateProvider(input)
	})
	if err != nil {
		return err
	}
	cfg.Database.Provider = provider

	defaultURI := map[string]string{
		"sqlite":   "~/.heatmap/heatmap.db",
		"postgres": "postgres://localhost:5432/heatmap?sslmode=disable",
		"mongodb":  "mongodb://localhost:27017",
		"file":     "records.json",
	}[provider]
	if cfg.Database.URI, err = promptOptional(reader, fmt.Sprintf("URI or path [%s]: ", defaultURI), defaultURI); err != nil {
		return err
	}

	if provider == "mongodb" {
		if cfg.Database.Database, err = promptOptional(reader, "Database name [heatmap]: ", "heatmap"); err != nil {
			return err
		}
	}
	if provider != "file" {
		if cfg.Database.Table, err = promptOptional(reader, "Table or collection [response_records]: ", "response_records"); err != nil {
			return err
		}
	}
	if provider == "postgres" {
		migrate, err := promptYesNo(reader, "Create the response table if missing? (y/N): ")
		if err != nil {
			return err
		}
		if migrate {
			cfg.Database.Options = map[string]string{"migrate": "true"}
		}
	}

	// Report defaults
	fmt.Println("\n📈 Report Defaults")
	fmt.Println("------------------")

	window, err := promptWithRetry(reader, "Trailing window in weeks [4]: ", func(input string) (string, error) {
		if input == "" {
			return "4", nil
		}
		n, err := validateNumber(input, 1, 52)
		return strconv.Itoa(n), err
	})
	if err != nil {
		return err
	}
	cfg.Engine.TrailingWindow, _ = strconv.Atoi(window)

	categories, err := promptOptional(reader, "Allowed categories, comma separated (empty accepts all): ", "")
	if err != nil {
		return err
	}
	cfg.Engine.Categories = parseCategories(categories)

	refresh, err := promptWithRetry(reader, fmt.Sprintf("Refresh schedule for the API server [%s] ('off' disables): ", cfg.Loader.RefreshCron), func(input string) (string, error) {
		switch strings.ToLower(input) {
		case "":
			return cfg.Loader.RefreshCron, nil
		case "off", "none":
			return "", nil
		}
		return validateCronExpression(input)
	})
	if err != nil {
		return err
	}
	cfg.Loader.RefreshCron = refresh

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Test the source
	fmt.Println("\n🔌 Testing record source...")
	testSource, err := newSource(cfg.DBConfig())
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := testSource.Connect(ctx); err != nil {
		fmt.Printf("❌ Failed to connect to %s: %v\n", maskURI(cfg.Database.URI), err)
		fmt.Println("\nPlease check your source configuration and try again.")
		return err
	}
	defer testSource.Disconnect(ctx)

	weeks, err := testSource.ListWeeks(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to read execution weeks: %v\n", err)
		return err
	}
	fmt.Printf("✅ Connection successful! Found %d execution weeks.\n", len(weeks))

	// Save configuration
	fmt.Println("\n💾 Saving configuration...")
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("✅ Configuration saved to: %s\n", configPath)

	// Summary
	fmt.Println("\n📋 Configuration Summary")
	fmt.Println("========================")
	fmt.Printf("Provider: %s\n", cfg.Database.Provider)
	fmt.Printf("URI: %s\n", maskURI(cfg.Database.URI))
	if cfg.Database.Database != "" {
		fmt.Printf("Database Name: %s\n", cfg.Database.Database)
	}
	fmt.Printf("Trailing Window: %d weeks\n", cfg.Engine.TrailingWindow)
	fmt.Println()
	fmt.Println("🎉 Setup complete!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Weekly mention rates:  heatmap stats")
	fmt.Println("  2. Category trends:       heatmap trends")
	fmt.Println("  3. Prompt matrix:         heatmap matrix --only-misses")
	fmt.Println("  4. Serve the dashboard:   heatmap api")

	return nil
}
