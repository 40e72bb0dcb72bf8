package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the record store",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	stats, err := queryService.Stats(context.Background(), ownerID)
	if err != nil {
		return fmt.Errorf("collecting stats: %w", err)
	}

	cmd.Printf("Records:  %d\n", stats.TotalRecords)
	cmd.Printf("Keywords: %d (%d unique)\n", stats.TotalKeywords, stats.UniqueKeywords)

	if len(stats.RecordsBySource) > 0 {
		cmd.Println("\nBy source:")
		sources := make([]string, 0, len(stats.RecordsBySource))
		for source := range stats.RecordsBySource {
			sources = append(sources, string(source))
		}
		sort.Strings(sources)
		for _, source := range sources {
			cmd.Printf("  %-18s %d\n", source, stats.RecordsBySource[domain.SourceType(source)])
		}
	}

	if len(stats.TopKeywords) > 0 {
		cmd.Println("\nTop keywords:")
		type kwCount struct {
			keyword string
			count   int
		}
		top := make([]kwCount, 0, len(stats.TopKeywords))
		for kw, count := range stats.TopKeywords {
			top = append(top, kwCount{kw, count})
		}
		sort.Slice(top, func(i, j int) bool {
			if top[i].count != top[j].count {
				return top[i].count > top[j].count
			}
			return top[i].keyword < top[j].keyword
		})
		for _, kc := range top {
			cmd.Printf("  %-18s %d\n", kc.keyword, kc.count)
		}
	}

	if len(stats.Recent) > 0 {
		cmd.Println("\nRecent:")
		for _, rec := range stats.Recent {
			cmd.Printf("  %s (%s)\n", rec.Key, rec.UpdatedAt.Format("2006-01-02"))
		}
	}
	return nil
}
