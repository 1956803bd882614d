package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cldf/zeromarking/internal/bibtex"
	"github.com/cldf/zeromarking/internal/config"
	"github.com/cldf/zeromarking/internal/importer"
	"github.com/cldf/zeromarking/internal/matcher"
	"github.com/cldf/zeromarking/internal/reference"
	"github.com/cldf/zeromarking/internal/sources"
	"github.com/cldf/zeromarking/internal/storage"
)

var (
	convertDryRun         bool
	convertWarnUnresolved bool
)

func init() {
	convertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "Resolve and report without writing")
	convertCmd.Flags().BoolVar(&convertWarnUnresolved, "warn-unresolved", false, "Log every reference that matches no key")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Resolve the sources of every record",
	Long: `Resolve the sources column of every record in the configured CSV.

Reads zm.yml for the bibliography, records and manual overrides, writes
<output_dir>/sources.jsonl and rebuilds the query cache.

Records whose sources cannot be parsed are reported and left out; the
other records are still converted. The exit code is 3 if any record failed.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

// ConvertResult is the response for the convert command.
type ConvertResult struct {
	Records    int                   `json:"records"`
	Converted  int                   `json:"converted"`
	Keys       int                   `json:"keys"`
	Unresolved int                   `json:"unresolved"`
	Output     string                `json:"output,omitempty"`
	Errors     []RecordErrorResponse `json:"errors"`
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	idx := mustLoadBibliography(cfg.Bibliography)

	records, err := importer.ReadRecords(cfg.Records, importer.CSVOptions{
		Delimiter:     cfg.DelimiterRune(),
		IDColumn:      cfg.IDColumn,
		SourcesColumn: cfg.SourcesColumn,
	})
	if err != nil {
		exitWithError(ExitDataError, "reading records: %v", err)
	}

	overrides, err := importer.ReadOverrides(cfg.Overrides)
	if err != nil {
		exitWithError(ExitDataError, "reading overrides: %v", err)
	}

	warn := convertWarnUnresolved || cfg.WarnUnresolved
	unresolved := 0
	m := matcher.New(idx, matcher.WithUnresolvedHook(func(ref reference.Reference) {
		unresolved++
		if warn {
			logger.Warn("unresolved reference", zap.Stringer("reference", ref))
		}
	}))

	assocs, recErrs := sources.NewAggregator(m).Batch(records, overrides)

	result := ConvertResult{
		Records:    len(records),
		Converted:  len(assocs),
		Unresolved: unresolved,
		Errors:     []RecordErrorResponse{},
	}
	for _, a := range assocs {
		result.Keys += len(a.Keys)
	}
	for _, e := range recErrs {
		result.Errors = append(result.Errors, RecordErrorResponse{
			RecordID: e.RecordID,
			Prose:    e.Prose,
			Error:    e.Err.Error(),
		})
	}

	if !convertDryRun {
		result.Output = cfg.SourcesPath()
		persistConversion(cfg, idx.Entries(), assocs)
	}

	if humanOutput {
		outputHuman("Converted %d/%d records (%d keys, %d unresolved references)\n",
			result.Converted, result.Records, result.Keys, result.Unresolved)
		if result.Output != "" {
			outputHuman("Wrote %s\n", result.Output)
		}
		if len(result.Errors) > 0 {
			errorColor.Printf("%d records failed:\n", len(result.Errors))
			printRecordErrorsHuman(result.Errors)
		}
	} else if err := outputJSON(result); err != nil {
		return err
	}

	if len(result.Errors) > 0 {
		exit(ExitDataError)
	}
	return nil
}

// persistConversion writes sources.jsonl and rebuilds the query cache.
func persistConversion(cfg *config.Config, entries []bibtex.Entry, assocs []reference.SourceAssociation) {
	if err := os.MkdirAll(cfg.CachePath(), 0755); err != nil {
		exitWithError(ExitError, "creating output directory: %v", err)
	}

	if err := storage.WriteAll(cfg.SourcesPath(), assocs); err != nil {
		exitWithError(ExitError, "writing sources: %v", err)
	}

	db := mustOpenDatabase(cfg)
	defer db.Close()

	stats, err := db.Rebuild(entries, assocs)
	if err != nil {
		exitWithError(ExitError, "rebuilding query cache: %v", err)
	}
	logger.Debug("rebuilt query cache",
		zap.Int("bib_keys", stats.BibKeys),
		zap.Int("records", stats.Records),
		zap.Int("citations", stats.Citations))
}
