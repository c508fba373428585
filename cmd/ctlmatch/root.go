// ABOUTME: Root Cobra command: compares two OSCAL catalogs and prints the match report.
// ABOUTME: Registers persistent flags and the flatten, mcp, and setup subcommands.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389-research/ctlmatch/internal/pipeline"
	"github.com/2389-research/ctlmatch/internal/report"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	var (
		threshold    float64
		topK         int
		format       string
		enhancements bool
	)

	rootCmd := &cobra.Command{
		Use:   "ctlmatch <base_catalog> <merge_catalog>",
		Short: "Find semantically similar controls between two OSCAL catalogs",
		Long: `Find semantic matches between the control parts of two OSCAL catalogs.

For every control or control part with prose in the merge catalog, ctlmatch
lists the closest parts of the base catalog by embedding similarity. The top-k
candidates are chosen first; only those scoring at or above the threshold are
reported.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "setup" {
				return nil
			}
			return ctx.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("threshold") {
				ctx.config.Match.Threshold = threshold
			}
			if flags.Changed("top-k") {
				ctx.config.Match.TopK = topK
			}
			if flags.Changed("include-enhancements") {
				ctx.config.Match.IncludeEnhancements = enhancements
			}
			return runMatch(cmd, ctx, args[0], args[1], format)
		},
	}

	pflags := rootCmd.PersistentFlags()
	pflags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	pflags.StringVar(&ctx.provider, "provider", "", "Embedding provider: http, onnx, or lexical")
	pflags.StringVar(&ctx.logLevel, "log-level", "", "Log level: debug, info, warn, or error")
	pflags.StringVar(&ctx.logFormat, "log-format", "", "Log format: console or json")

	flags := rootCmd.Flags()
	flags.Float64Var(&threshold, "threshold", pipeline.DefaultThreshold, "Minimum similarity score to consider a match (0.0 to 1.0)")
	flags.IntVar(&topK, "top-k", pipeline.DefaultTopK, "Number of top potential matches to show")
	flags.StringVar(&format, "format", report.FormatText, "Report format: text, json, or table")
	flags.BoolVar(&enhancements, "include-enhancements", false, "Also compare nested control enhancements")

	rootCmd.AddCommand(newFlattenCommand(ctx))
	rootCmd.AddCommand(newMCPCommand(ctx))
	rootCmd.AddCommand(newSetupCommand(ctx))

	return rootCmd
}

func runMatch(cmd *cobra.Command, ctx *commandContext, basePath, mergePath, format string) error {
	sigCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	matcher := pipeline.NewLazyMatcher(ctx.newEmbedder, ctx.logger, ctx.matchOptions())
	rep, err := matcher.Run(sigCtx, basePath, mergePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := report.Render(out, rep, report.Options{Format: format, Color: report.ShouldColorize(out)}); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
