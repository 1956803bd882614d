package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cldf/zeromarking/internal/config"
	"github.com/cldf/zeromarking/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query cache from source data",
	Long: `Rebuild the SQLite query cache from the bibliography and sources.jsonl.

Use this after editing sources.jsonl by hand or if the cache becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	storage.RebuildStats
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	idx := mustLoadBibliography(cfg.Bibliography)

	if err := os.MkdirAll(cfg.CachePath(), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}

	db := mustOpenDatabase(cfg)
	defer db.Close()

	stats, err := db.RebuildFromJSONL(idx.Entries(), cfg.SourcesPath())
	if err != nil {
		exitWithError(ExitDataError, "rebuilding query cache: %v", err)
	}

	if humanOutput {
		outputHuman("Rebuilt cache: %d bibliography keys, %d records, %d citations\n",
			stats.BibKeys, stats.Records, stats.Citations)
		return nil
	}
	return outputJSON(RebuildResult{Status: "rebuilt", RebuildStats: stats})
}

// mustOpenDatabase opens the SQLite query cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(cfg *config.Config) *storage.DB {
	db, err := storage.OpenDB(cfg.DBPath())
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
