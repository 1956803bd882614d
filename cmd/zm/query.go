package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	queryCmd.AddCommand(queryCitedByCmd)
	queryCmd.AddCommand(queryKeysCmd)
	queryCmd.AddCommand(queryUnusedCmd)
	queryCmd.AddCommand(queryDanglingCmd)
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the converted sources",
	Long:  `Query the SQLite cache built by 'zm convert' or 'zm rebuild'.`,
}

var queryCitedByCmd = &cobra.Command{
	Use:   "cited-by <bibkey>",
	Short: "List records citing a bibliography key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("cited-by", args[0], func(q querier) ([]string, error) {
			return q.CitedBy(args[0])
		})
	},
}

var queryKeysCmd = &cobra.Command{
	Use:   "keys <record-id>",
	Short: "List the resolved keys of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("keys", args[0], func(q querier) ([]string, error) {
			return q.KeysFor(args[0])
		})
	},
}

var queryUnusedCmd = &cobra.Command{
	Use:   "unused",
	Short: "List bibliography keys no record cites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("unused", "", func(q querier) ([]string, error) {
			return q.Unused()
		})
	},
}

var queryDanglingCmd = &cobra.Command{
	Use:   "dangling",
	Short: "List cited keys missing from the bibliography",
	Long: `List cited keys missing from the bibliography.

Resolved keys always exist in the bibliography, so dangling keys come from
manual overrides, which are taken verbatim.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("dangling", "", func(q querier) ([]string, error) {
			return q.Dangling()
		})
	},
}

// querier is the subset of storage.DB used by query commands.
type querier interface {
	CitedBy(bibkey string) ([]string, error)
	KeysFor(recordID string) ([]string, error)
	Unused() ([]string, error)
	Dangling() ([]string, error)
}

// QueryResult is the response for query commands.
type QueryResult struct {
	Query   string   `json:"query"`
	Arg     string   `json:"arg,omitempty"`
	Results []string `json:"results"`
}

func runQuery(name, arg string, fn func(querier) ([]string, error)) error {
	cfg := mustLoadConfig()
	if _, err := os.Stat(cfg.DBPath()); err != nil {
		exitWithError(ExitConfigError, "query cache not found at %s\n\nRun 'zm convert' or 'zm rebuild' first.", cfg.DBPath())
	}

	db := mustOpenDatabase(cfg)
	defer db.Close()

	results, err := fn(db)
	if err != nil {
		exitWithError(ExitError, "%s: %v", name, err)
	}

	if humanOutput {
		if len(results) == 0 {
			warnColor.Println("No results")
			return nil
		}
		for _, r := range results {
			outputHuman("%s\n", truncateString(r, 120))
		}
		return nil
	}
	return outputJSON(QueryResult{Query: name, Arg: arg, Results: results})
}
