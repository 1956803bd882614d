package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cldf/zeromarking/internal/citation"
	"github.com/cldf/zeromarking/internal/reference"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <sources>",
	Short: "Split a sources string into author/year/pages references",
	Long: `Split a free-text sources string into references without matching them.

"Personal knowledge" and "(p.c.)" clauses are consumed but produce nothing.

Usage:
  zm parse "Smith 1990: 12-15; Personal knowledge; Jones (p.c.)"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

// ParseResult is the response for the parse command.
type ParseResult struct {
	Input      string                `json:"input"`
	References []reference.Reference `json:"references"`
}

func runParse(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")

	refs, err := citation.ParseAll(input)
	if err != nil {
		exitWithError(parseExitCode(err), "%v", err)
	}
	if refs == nil {
		refs = []reference.Reference{}
	}

	if humanOutput {
		if len(refs) == 0 {
			warnColor.Println("No references")
			return nil
		}
		for i, r := range refs {
			outputHuman("%d. author=%q year=%q", i+1, r.Author, r.Year)
			if r.HasPages() {
				outputHuman(" pages=%q", r.Pages)
			}
			outputHuman("\n")
		}
		return nil
	}

	return outputJSON(ParseResult{Input: input, References: refs})
}

// parseExitCode maps malformed-input errors to ExitDataError.
func parseExitCode(err error) int {
	var pe *citation.ParseError
	if errors.As(err, &pe) {
		return ExitDataError
	}
	return ExitError
}
