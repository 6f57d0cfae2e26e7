package main

import (
	"fmt"

	"github.com/spf13/cobra"

	canonerrors "canon/internal/errors"
)

var (
	fetchCanon  string
	fetchFormat string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <path>",
	Short: "Print one governed file from the baseline repository",
	Long: `Fetches a governed file from the baseline repository, or from the
canon override when it has the file. Content is served from the cache when
the baseline commit has not moved.

Examples:
  canon fetch canon/retries.md
  canon fetch patterns/outbox.md --canon acme/canon@main`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchCanon, "canon", "", "Canon repository override as owner/repo[@ref]")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "raw", "Output format (raw, json)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	canon, err := parseCanonFlag(fetchCanon)
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

	res, err := rt.engine.FetchFile(ctx, args[0], canon)
	if err != nil {
		return err
	}

	if fetchFormat == "json" {
		out, err := FormatResponse(res, FormatJSON)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	if !res.Found {
		if !res.Status.AnyAvailable() {
			return canonerrors.New(canonerrors.BaselineUnavailable,
				fmt.Sprintf("baseline unavailable: %s", res.Status.Cause), nil)
		}
		return fmt.Errorf("%s not found in %s", res.Path, res.Status.Repo)
	}
	fmt.Fprint(cmd.OutOrStdout(), res.Content)
	return nil
}
