// ABOUTME: MCP server command implementation for ctlmatch.
// ABOUTME: Starts the MCP server in stdio mode for AI agent integration.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcppkg "github.com/2389-research/ctlmatch/internal/mcp"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server (stdio mode)",
		Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio, allowing AI agents like Claude
to compare and inspect catalogs through a standardized protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			embedder, err := ctx.newEmbedder()
			if err != nil {
				return err
			}
			defer func() { _ = embedder.Close() }()

			server, err := mcppkg.NewServer(embedder,
				mcppkg.WithDefaults(ctx.matchOptions()),
				mcppkg.WithLogger(ctx.logger),
			)
			if err != nil {
				return err
			}

			return server.Serve(sigCtx)
		},
	}
}
