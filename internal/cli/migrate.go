package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/db/postgres"
	"github.com/AI2HU/heatmap/internal/db/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the response table schema",
	Long:  `Apply the bundled schema migrations to a SQLite or PostgreSQL record source.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	Long:  `Apply all pending schema migrations.`,
	RunE:  runMigrateUp,
}

var migrateVersionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"status"},
	Short:   "Show current migration version",
	Long:    `Show the current schema migration version.`,
	RunE:    runMigrateVersion,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	conn, dialect, err := migrationTarget()
	if err != nil {
		return err
	}

	fmt.Println("🔄 Running database migrations...")
	if err := db.RunMigrations(conn, dialect); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("%s✅ Migrations completed successfully!%s\n", SuccessStyle, Reset)
	return printMigrationVersion(conn, dialect)
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	conn, dialect, err := migrationTarget()
	if err != nil {
		return err
	}

	fmt.Println("📊 Migration Status")
	fmt.Println("===================")
	return printMigrationVersion(conn, dialect)
}

func printMigrationVersion(conn *sql.DB, dialect string) error {
	version, dirty, err := db.MigrationVersion(conn, dialect)
	if err != nil {
		return err
	}

	state := "clean"
	if dirty {
		state = WarningStyle + "dirty" + Reset
	}
	fmt.Println(FormatLabelValue("Provider:", cfg.Database.Provider))
	fmt.Println(FormatLabelValue("Version:", fmt.Sprintf("%d (%s)", version, state)))
	return nil
}

// migrationTarget returns the open connection of a SQL record source
func migrationTarget() (*sql.DB, string, error) {
	switch s := source.(type) {
	case *sqlite.SQLite:
		return s.DB.DB, db.DialectSQLite, nil
	case *postgres.Postgres:
		return s.DB.DB, db.DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("migrations are not supported for provider: %s", cfg.Database.Provider)
	}
}
