package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [index.csv]",
	Short: "Import a legacy flat-file index",
	Long: `Imports the legacy CSV index, one "type,timestamp,path" line per
saved artifact. Missing files and malformed lines are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	imported, err := ingestService.MigrateCSV(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("migrating %s: %w", args[0], err)
	}
	cmd.Printf("Imported %d records.\n", imported)
	return nil
}
