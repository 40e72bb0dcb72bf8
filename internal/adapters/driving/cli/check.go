package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check [reference]",
	Short: "Show the cache status of a reference",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	status, rec, err := ingestService.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("checking %s: %w", args[0], err)
	}

	if status == domain.CacheAbsent {
		cmd.Println("Not cached.")
		return nil
	}

	cmd.Printf("Status:  %s\n", status)
	cmd.Printf("Key:     %s\n", rec.Key)
	cmd.Printf("Fetched: %s\n", rec.FetchedAt.Format("2006-01-02 15:04"))
	cmd.Printf("Id:      %s\n", rec.ID)
	return nil
}
