package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var relatedLimit int

var relatedCmd = &cobra.Command{
	Use:   "related [record-id]",
	Short: "List records sharing keywords with a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelated,
}

func init() {
	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "n", 5, "maximum number of results")
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	related, err := queryService.Related(context.Background(), args[0], relatedLimit, ownerID)
	if err != nil {
		return fmt.Errorf("finding related records: %w", err)
	}

	if len(related) == 0 {
		cmd.Println("No related records found.")
		return nil
	}

	for i, rel := range related {
		cmd.Printf("  [%d] %s (%d shared)\n", i+1, rel.Key, rel.SharedKeywords)
		cmd.Printf("      id: %s\n", rel.ID)
	}
	return nil
}
