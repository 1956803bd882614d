// Package main provides the zm CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cldf/zeromarking/internal/bibtex"
	"github.com/cldf/zeromarking/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	configPath  string

	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zm",
	Short: "Resolve free-text source annotations to bibliography keys",
	Long: `zm converts the free-text "sources" annotations of a linguistic dataset
into sorted, deduplicated lists of BibTeX keys.

A source string such as "Smith 1990: 12-15; Personal knowledge; Jones (p.c.)"
is split into author/year/pages references, and each reference is matched
against the bibliography by surname and year.

Results are written as JSONL with an ephemeral SQLite cache for queries.
All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		logger = newLogger(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to zm.yml (default: $ZM_CONFIG or ./zm.yml)")
	rootCmd.Version = Version
}

// newLogger builds a console logger on stderr.
func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// mustLoadConfig locates and loads zm.yml, exits on error.
func mustLoadConfig() *config.Config {
	path, err := config.Locate(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nCreate zm.yml with at least:\n  bibliography: raw/references.bib\n  records: raw/data.csv", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	logger.Debug("loaded config", zap.String("path", path))
	return cfg
}

// mustLoadBibliography loads and indexes a .bib file, exits on error.
func mustLoadBibliography(path string) *bibtex.Index {
	idx, err := bibtex.Load(path, bibtex.WithLogger(logger))
	if err != nil {
		exitWithError(ExitDataError, "loading bibliography: %v", err)
	}
	logger.Debug("indexed bibliography", zap.String("path", path), zap.Int("entries", idx.Len()))
	return idx
}

// bibPath returns the --bib flag value, falling back to the config file.
func bibPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return mustLoadConfig().Bibliography
}
