package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

// printRecords renders a record list, one block per record.
func printRecords(cmd *cobra.Command, records []domain.Record) {
	if len(records) == 0 {
		cmd.Println("No records found.")
		return
	}

	for i, rec := range records {
		cmd.Printf("  [%d] %s\n", i+1, rec.Key)
		cmd.Printf("      %s, updated %s\n", rec.Source, rec.UpdatedAt.Format("2006-01-02 15:04"))
		if rec.Summary != "" {
			cmd.Printf("      %s\n", firstLine(rec.Summary))
		}
		cmd.Printf("      id: %s\n", rec.ID)
		cmd.Println()
	}
}

// printRecordsJSON renders a record list as indented JSON.
func printRecordsJSON(cmd *cobra.Command, records []domain.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// firstLine truncates a summary to its first line for list output.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
