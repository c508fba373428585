// ABOUTME: Shared state for ctlmatch commands: config loading and flag overrides.
// ABOUTME: Persistent flags win over the config file only when set on the command line.
package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/ctlmatch/internal/config"
	"github.com/2389-research/ctlmatch/internal/embeddings"
	"github.com/2389-research/ctlmatch/internal/logging"
	"github.com/2389-research/ctlmatch/internal/pipeline"
)

type commandContext struct {
	configFlag string
	provider   string
	logLevel   string
	logFormat  string

	config *config.Config
	logger *slog.Logger
}

// load reads the config file, applies persistent flag overrides, validates, and builds the logger.
func (c *commandContext) load(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if path := strings.TrimSpace(c.configFlag); path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Embedder.Provider = c.provider
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = c.logFormat
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	c.config = cfg
	c.logger = logger
	return nil
}

// newEmbedder validates the configuration and constructs the selected provider.
func (c *commandContext) newEmbedder() (embeddings.Embedder, error) {
	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	e, err := embeddings.New(c.config.Embedder)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("embedding provider ready",
		logging.String("provider", c.config.Embedder.Provider),
		logging.String("model", e.ModelID()))
	return e, nil
}

func (c *commandContext) matchOptions() pipeline.Options {
	return pipeline.Options{
		Threshold:           c.config.Match.Threshold,
		TopK:                c.config.Match.TopK,
		IncludeEnhancements: c.config.Match.IncludeEnhancements,
	}
}
