package main

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cldf/zeromarking/internal/matcher"
	"github.com/cldf/zeromarking/internal/reference"
	"github.com/cldf/zeromarking/internal/sources"
)

var (
	resolveBib       string
	resolveOverrides string
)

func init() {
	resolveCmd.Flags().StringVar(&resolveBib, "bib", "", "BibTeX file (default: bibliography from zm.yml)")
	resolveCmd.Flags().StringVar(&resolveOverrides, "add", "", "Semicolon-separated keys to add verbatim")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <sources>",
	Short: "Resolve a sources string to bibliography keys",
	Long: `Resolve a free-text sources string to sorted, deduplicated bibliography keys.

Each reference is matched by surname and year: first with name particles
(van, de, der) dropped, then with them glued to the surname. References
matching no key are dropped and listed under "unresolved".

Usage:
  zm resolve --bib references.bib "Smith 1990: 12-15; van der Berg 2004"
  zm resolve --bib references.bib --add "Manual2001" "Smith 1990"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

// ResolveResult is the response for the resolve command.
type ResolveResult struct {
	Input      string                `json:"input"`
	Keys       []string              `json:"keys"`
	Unresolved []UnresolvedReference `json:"unresolved"`
}

// UnresolvedReference reports a reference and the keys tried for it.
type UnresolvedReference struct {
	Reference  reference.Reference `json:"reference"`
	Candidates []string            `json:"candidates"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")
	idx := mustLoadBibliography(bibPath(resolveBib))

	unresolved := []UnresolvedReference{}
	m := matcher.New(idx, matcher.WithUnresolvedHook(func(ref reference.Reference) {
		logger.Debug("unresolved reference", zap.Stringer("reference", ref))
		unresolved = append(unresolved, UnresolvedReference{
			Reference:  ref,
			Candidates: candidateKeys(ref),
		})
	}))

	assoc, err := sources.NewAggregator(m).Aggregate("", input, sources.SplitOverrides(resolveOverrides))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		outputHuman("%s\n", input)
		printKeysHuman(assoc.Keys)
		for _, u := range unresolved {
			warnColor.Printf("  unresolved: %s (tried %s)\n", u.Reference, formatIDList(u.Candidates))
		}
		return nil
	}

	return outputJSON(ResolveResult{Input: input, Keys: assoc.Keys, Unresolved: unresolved})
}

// candidateKeys lists the distinct keys the default matcher tries for ref.
func candidateKeys(ref reference.Reference) []string {
	var keys []string
	for _, c := range matcher.DefaultCandidates {
		k, err := c(ref)
		if err != nil || slices.Contains(keys, k) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}
