package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var urlsCmd = &cobra.Command{
	Use:   "urls [substring]",
	Short: "Search records by URL fragment",
	Args:  cobra.ExactArgs(1),
	RunE:  runURLs,
}

func init() {
	rootCmd.AddCommand(urlsCmd)
}

func runURLs(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	records, err := queryService.SearchByURL(context.Background(), args[0], ownerID)
	if err != nil {
		return fmt.Errorf("url search failed: %w", err)
	}

	printRecords(cmd, records)
	return nil
}
