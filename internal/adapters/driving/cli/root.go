// Package cli implements the docvault command-line interface.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docvault/internal/adapters/driven/arxiv"
	configfile "github.com/custodia-labs/docvault/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docvault/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docvault/internal/core/ports/driving"
	"github.com/custodia-labs/docvault/internal/core/services"
	"github.com/custodia-labs/docvault/internal/logger"
)

// version is set by Execute from the build.
var version = "dev"

var (
	verbose bool
	dataDir string
	ownerID string
)

var (
	ingestService   driving.IngestService
	queryService    driving.QueryService
	resolverService driving.ResolverService
	store           *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "docvault",
	Short: "Cache and query summarised documents",
	Long: `docvault resolves document references to canonical keys, keeps at
most one summarised record per key, and serves cached records until
they go stale.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initServices,
	PersistentPostRun: closeStore,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the data directory")
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "", "scope queries to this owner id")
}

// Execute runs the CLI with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// initServices wires the real adapters. Tests inject services
// directly, which short-circuits the wiring; version and help never
// need a store.
func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if queryService != nil || cmd.Name() == "version" {
		return nil
	}

	configDir, err := configfile.DefaultConfigDir()
	if err != nil {
		return fmt.Errorf("locating config directory: %w", err)
	}
	settings, err := configfile.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	dir := dataDir
	if dir == "" {
		dir = settings.DataDir
	}
	store, err = sqlite.NewStore(dir)
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}

	resolverService = services.NewResolverService(arxiv.NewProvider(), services.ResolverConfig{
		JaccardWeight:       settings.Resolver.JaccardWeight,
		LCSWeight:           settings.Resolver.LCSWeight,
		TrigramBonus:        settings.Resolver.TrigramBonus,
		ConfidenceThreshold: settings.Resolver.ConfidenceThreshold,
		PageSize:            settings.Resolver.PageSize,
		MaxRunnersUp:        settings.Resolver.MaxRunnersUp,
	})
	ingestService = services.NewIngestService(store, resolverService, nil, nil, nil,
		time.Duration(settings.StalenessDays)*24*time.Hour)
	queryService = services.NewQueryService(store)
	return nil
}

func closeStore(_ *cobra.Command, _ []string) {
	if store != nil {
		_ = store.Close()
		store = nil
	}
}
