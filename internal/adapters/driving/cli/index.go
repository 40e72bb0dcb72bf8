package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index saved artifact files",
	Long: `Indexes a saved artifact JSON file, or every artifact under a
directory, into the record store.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	ctx := context.Background()
	if info.IsDir() {
		total, indexed, err := ingestService.IndexDir(ctx, path, ownerID)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}
		cmd.Printf("Indexed %d of %d artifacts.\n", indexed, total)
		return nil
	}

	rec, err := ingestService.IndexArtifact(ctx, path, ownerID)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}
	cmd.Printf("Indexed %s\n  id: %s\n", rec.Key, rec.ID)
	return nil
}
