// ABOUTME: Cobra command for interactive embedding provider setup.
// ABOUTME: Launches a bubbletea TUI wizard to collect and validate API settings.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/ctlmatch/internal/config"
	"github.com/2389-research/ctlmatch/internal/tui"
)

func newSetupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Configure the embedding API",
		Long:  "Interactive wizard to configure the OpenAI-compatible embedding endpoint, model, and API key.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, ctx)
		},
	}
}

func runSetup(cmd *cobra.Command, ctx *commandContext) error {
	path := ctx.configFlag
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model := tui.NewSetupModel(
		cfg.Embedder.APIURL,
		cfg.Embedder.Model,
		cfg.Embedder.APIKey,
	)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	out := cmd.OutOrStdout()
	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Fprintln(out, "Setup cancelled.")
		return nil
	}

	apiURL, embedModel, apiKey := final.Result()
	if err := saveSetup(cfg, path, apiURL, embedModel, apiKey); err != nil {
		return err
	}
	fmt.Fprintf(out, "Config saved to %s\n", path)
	return nil
}

// saveSetup switches cfg to the http provider with the entered settings and writes it to path.
// cfg must come from config.LoadFile so environment overrides are not persisted.
func saveSetup(cfg *config.Config, path, apiURL, model, apiKey string) error {
	cfg.Embedder.Provider = config.ProviderHTTP
	cfg.Embedder.APIURL = apiURL
	cfg.Embedder.Model = model
	cfg.Embedder.APIKey = apiKey

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
