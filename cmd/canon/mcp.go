package main

import (
	"github.com/spf13/cobra"

	"canon/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio",
	Long: `Start the Model Context Protocol server.

Tools:
  - canon_search: answer a question with cited evidence and confidence
  - canon_fetch_file: fetch one governed file from the baseline
  - canon_invalidate_cache: drop cached baseline content

Logs go to .canon/logs/mcp.log since stdout carries the protocol.
This command is typically started by an MCP client, not by users.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	rt, err := newApp(ctx, mcpLogger)
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := mcp.NewServer(rt.engine, rt.logger)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
