package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"canon/internal/index"
	"canon/internal/paths"
)

var (
	indexForce  bool
	indexFormat string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the governance document index",
	Long: `Scans the repository for governance documents, merges the baseline
repository when it is reachable, and saves the index to .canon/index.json.

Without --force an index that still matches the baseline is kept.

Examples:
  canon index
  canon index --force`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "Rebuild even when the index is current")
	indexCmd.Flags().StringVar(&indexFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx, cancel := newContext()
	defer cancel()

	rt, err := newApp(ctx, cliLogger)
	if err != nil {
		return err
	}
	defer rt.Close()

	lock, err := index.AcquireLock(paths.StateDir(rt.repoRoot))
	if err != nil {
		return err
	}
	defer lock.Release()

	res, err := rt.engine.Index(ctx, indexForce)
	if err != nil {
		return err
	}

	out, err := FormatResponse(res, OutputFormat(indexFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)

	rt.logger.Debug("Index command completed",
		"rebuilt", res.Rebuilt,
		"documents", res.Index.Stats.Total,
		"duration", time.Since(start).Milliseconds(),
	)
	return nil
}
