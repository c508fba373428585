// ABOUTME: Embedding interface and provider construction for catalog text units.
// ABOUTME: Providers are built explicitly per run and closed by the caller; nothing is global.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389-research/ctlmatch/internal/config"
)

// ErrUnknownProvider is returned by New for an unrecognised provider name.
var ErrUnknownProvider = errors.New("unknown embedding provider")

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns one vector per text, in input order, in a single batched call.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the output vectors, or 0 if not yet known.
	Dimension() int

	// ModelID names the model for reports and logs.
	ModelID() string

	// Close releases provider resources.
	Close() error
}

// New constructs the provider selected by cfg.Provider.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	switch cfg.Provider {
	case config.ProviderHTTP:
		return NewHTTPEmbedder(cfg.APIURL, cfg.APIKey, cfg.Model,
			WithBatchSize(cfg.BatchSize),
			WithTimeout(cfg.Timeout),
		), nil
	case config.ProviderONNX:
		e, err := NewONNXEmbedder(ONNXConfig{
			ModelPath:     cfg.ModelPath,
			TokenizerPath: cfg.TokenizerPath,
			LibraryPath:   cfg.ORTLibrary,
			Dimension:     cfg.Dimension,
			MaxSeqLen:     cfg.MaxSeqLen,
			BatchSize:     cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderLexical:
		return NewLexicalEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
