// ABOUTME: Cobra command that prints the text units extracted from one catalog.
// ABOUTME: Useful for checking what the matcher will compare before running it.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/ctlmatch/internal/catalog"
	"github.com/2389-research/ctlmatch/internal/logging"
	"github.com/2389-research/ctlmatch/internal/report"
)

func newFlattenCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON       bool
		enhancements bool
	)

	cmd := &cobra.Command{
		Use:   "flatten <catalog>",
		Short: "List the controls and parts with prose in a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := catalog.Load(args[0])
			if err != nil {
				return err
			}

			var opts []catalog.FlattenOption
			if enhancements || (!cmd.Flags().Changed("include-enhancements") && ctx.config.Match.IncludeEnhancements) {
				opts = append(opts, catalog.WithEnhancements())
			}
			units := catalog.Flatten(doc, opts...)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(units)
			}
			for _, u := range units {
				fmt.Fprintf(out, "%s\t%s\t%s\n", u.ParentControl.DisplayID(), u.DisplayID(), report.Preview(u.Text))
			}
			ctx.logger.Info("catalog flattened", logging.String("path", args[0]), logging.Int("units", len(units)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print units as JSON")
	cmd.Flags().BoolVar(&enhancements, "include-enhancements", false, "Also flatten nested control enhancements")
	return cmd
}
