package main

import (
	"github.com/spf13/cobra"

	"github.com/cldf/zeromarking/internal/bibtex"
)

var bibFile string

func init() {
	bibCheckCmd.Flags().StringVar(&bibFile, "bib", "", "BibTeX file (default: bibliography from zm.yml)")
	bibCmd.AddCommand(bibCheckCmd)
	rootCmd.AddCommand(bibCmd)
}

var bibCmd = &cobra.Command{
	Use:   "bib",
	Short: "Inspect the bibliography",
}

var bibCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Index the bibliography and report duplicate keys",
	Long: `Index the bibliography and report duplicate citation keys.

Duplicates are renamed key-2, key-3, ... in file order; sources citing the
original key resolve to the first entry.`,
	Args: cobra.NoArgs,
	RunE: runBibCheck,
}

// BibCheckResult is the response for the bib check command.
type BibCheckResult struct {
	Path    string          `json:"path"`
	Entries int             `json:"entries"`
	Renamed []bibtex.Rename `json:"renamed"`
}

func runBibCheck(cmd *cobra.Command, args []string) error {
	path := bibPath(bibFile)
	idx := mustLoadBibliography(path)

	result := BibCheckResult{Path: path, Entries: idx.Len(), Renamed: idx.Renamed()}

	if humanOutput {
		outputHuman("%s: %d entries\n", path, result.Entries)
		for _, r := range result.Renamed {
			warnColor.Printf("  duplicate %s renamed to %s\n", r.From, r.To)
		}
		return nil
	}
	return outputJSON(result)
}
