package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AI2HU/heatmap/internal/normalize"
)

var schemaRecord bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of a record export",
	Long:  `Print the JSON schema of the record export read by the file provider.`,
	RunE:  runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaRecord, "record", false, "Print the schema of a single record instead of the export array")
}

func runSchema(cmd *cobra.Command, args []string) error {
	schema := normalize.ExportSchema()
	if schemaRecord {
		schema = normalize.RecordSchema()
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
