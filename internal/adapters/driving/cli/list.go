package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

var listCmd = &cobra.Command{
	Use:   "list [source]",
	Short: "List records of one source type",
	Long:  `Lists records by source: webpage, github, github-notebook, arxiv, youtube, reddit or huggingface.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	records, err := queryService.ListBySource(context.Background(), domain.SourceType(args[0]), ownerID)
	if err != nil {
		return fmt.Errorf("listing %s records: %w", args[0], err)
	}

	printRecords(cmd, records)
	return nil
}
