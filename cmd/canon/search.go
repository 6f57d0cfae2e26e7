package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	searchFormat   string
	searchBaseline string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Answer a question from governance documents",
	Long: `Searches local and baseline governance documents and returns cited
evidence with an explainable confidence score.

Superseded documents are dropped, and workaround or experiment documents are
vetoed when they rank above durable guidance.

Examples:
  canon search "retry policy for outbound calls"
  canon search "error budget" --format human
  canon search "logging" --baseline acme/governance@v2`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchFormat, "format", "json", "Output format (json, human)")
	searchCmd.Flags().StringVar(&searchBaseline, "baseline", "", "Canon repository override as owner/repo[@ref]")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	start := time.Now()
	canon, err := parseCanonFlag(searchBaseline)
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	rt, err := newApp(ctx, cliLogger)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.engine.Search(ctx, args[0], canon)
	if err != nil {
		return err
	}

	out, err := FormatResponse(res, OutputFormat(searchFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)

	rt.logger.Debug("Search completed",
		"query", res.Query,
		"status", res.Status,
		"evidence", len(res.Evidence),
		"duration", time.Since(start).Milliseconds(),
	)
	return nil
}
