package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find [title...]",
	Short: "Resolve an imprecise title to a document",
	Long: `Resolves a roughly remembered title to the best matching document
via staged provider searches and similarity scoring.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	if resolverService == nil {
		return errors.New("resolver service not configured")
	}

	query := strings.Join(args, " ")
	res, err := resolverService.Resolve(context.Background(), query)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", query, err)
	}

	if res.Best == nil {
		cmd.Println("No match found.")
		return nil
	}

	marker := ""
	if res.LowConfidence {
		marker = " (low confidence)"
	}
	cmd.Printf("Best match%s:\n", marker)
	cmd.Printf("  %s\n  %s (%.2f)\n", res.Best.Title, res.Best.Link, res.Best.Score)

	if len(res.RunnersUp) > 0 {
		cmd.Println("\nAlso considered:")
		for _, c := range res.RunnersUp {
			cmd.Printf("  %s (%.2f)\n", c.Title, c.Score)
		}
	}
	return nil
}
