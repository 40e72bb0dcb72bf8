package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [record-id]",
	Short: "Show one record in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	rec, keywords, err := queryService.Get(context.Background(), args[0], ownerID)
	if err != nil {
		return fmt.Errorf("fetching record %s: %w", args[0], err)
	}

	cmd.Printf("Key:     %s\n", rec.Key)
	cmd.Printf("Source:  %s\n", rec.Source)
	cmd.Printf("Fetched: %s\n", rec.FetchedAt.Format("2006-01-02 15:04"))
	if rec.OwnerID != "" {
		cmd.Printf("Owner:   %s\n", rec.OwnerID)
	}
	if len(keywords) > 0 {
		cmd.Printf("Keywords: %s\n", strings.Join(keywords, ", "))
	}
	if rec.Summary != "" {
		cmd.Printf("\n%s\n", rec.Summary)
	}
	if rec.ContentPreview != "" {
		cmd.Printf("\nPreview:\n%s\n", rec.ContentPreview)
	}
	return nil
}
