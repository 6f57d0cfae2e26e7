package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var invalidateCanon string

var invalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached baseline content",
	Long: `Removes the cached archive, index, and files of the baseline repository
(or of the given canon repository) from memory and .canon/cache.db. The next
search refetches them.`,
	Args: cobra.NoArgs,
	RunE: runInvalidate,
}

func init() {
	invalidateCmd.Flags().StringVar(&invalidateCanon, "canon", "", "Canon repository to invalidate instead of the baseline")
	rootCmd.AddCommand(invalidateCmd)
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	canon, err := parseCanonFlag(invalidateCanon)
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

	if err := rt.engine.InvalidateCache(ctx, canon); err != nil {
		return err
	}

	target := "baseline"
	if canon != nil {
		target = canon.String()
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Invalidated cached content for %s\n", target)

	stats, err := rt.engine.CacheStats(ctx)
	if err != nil {
		rt.logger.Warn("Failed to read cache stats", "error", err)
		return nil
	}
	fmt.Fprintln(out, formatCacheStats(stats))
	return nil
}
