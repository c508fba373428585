// ABOUTME: Orchestrates one catalog matching run from file paths to a report.
// ABOUTME: Loads, flattens, embeds, scores, and selects matches in a fixed order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/2389-research/ctlmatch/internal/catalog"
	"github.com/2389-research/ctlmatch/internal/embeddings"
	"github.com/2389-research/ctlmatch/internal/logging"
	"github.com/2389-research/ctlmatch/internal/match"
	"github.com/2389-research/ctlmatch/internal/models"
	"github.com/2389-research/ctlmatch/internal/similarity"
)

var (
	// ErrEmptyCorpus is returned when either catalog flattens to no text units.
	ErrEmptyCorpus = errors.New("no controls or parts with prose found in one or both catalogs")

	// ErrInvalidOptions is returned for option values the selector cannot honour.
	ErrInvalidOptions = errors.New("invalid match options")
)

const (
	DefaultThreshold = 0.65
	DefaultTopK      = 3
)

// Options controls match selection for a run.
type Options struct {
	Threshold           float64
	TopK                int
	IncludeEnhancements bool
}

// DefaultOptions returns the stock threshold and top-k.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, TopK: DefaultTopK}
}

// Source is a decoded catalog and the name it is reported under.
type Source struct {
	Name     string
	Document *catalog.Document
}

// EmbedderFactory opens an embedding provider for a single run.
type EmbedderFactory func() (embeddings.Embedder, error)

// Matcher runs catalog comparisons with one embedding provider.
type Matcher struct {
	embedder embeddings.Embedder
	open     EmbedderFactory
	logger   *slog.Logger
	opts     Options
}

// NewMatcher creates a matcher. The embedder stays owned by the caller.
func NewMatcher(embedder embeddings.Embedder, logger *slog.Logger, opts Options) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{embedder: embedder, logger: logger, opts: opts}
}

// NewLazyMatcher creates a matcher that opens its provider only after both
// catalogs have text units, and closes it when the run ends.
func NewLazyMatcher(open EmbedderFactory, logger *slog.Logger, opts Options) *Matcher {
	m := NewMatcher(nil, logger, opts)
	m.open = open
	return m
}

// Run loads both catalog files and compares them. Reports name each catalog by its file name.
func (m *Matcher) Run(ctx context.Context, basePath, mergePath string) (*models.Report, error) {
	base, err := catalog.Load(basePath)
	if err != nil {
		return nil, err
	}
	merge, err := catalog.Load(mergePath)
	if err != nil {
		return nil, err
	}
	return m.Compare(ctx,
		Source{Name: filepath.Base(basePath), Document: base},
		Source{Name: filepath.Base(mergePath), Document: merge},
	)
}

// Compare matches every merge-side text unit against the base catalog.
func (m *Matcher) Compare(ctx context.Context, base, merge Source) (*models.Report, error) {
	if m.opts.TopK < 0 {
		return nil, fmt.Errorf("%w: top-k must not be negative, got %d", ErrInvalidOptions, m.opts.TopK)
	}

	var flattenOpts []catalog.FlattenOption
	if m.opts.IncludeEnhancements {
		flattenOpts = append(flattenOpts, catalog.WithEnhancements())
	}
	baseUnits := catalog.Flatten(base.Document, flattenOpts...)
	mergeUnits := catalog.Flatten(merge.Document, flattenOpts...)

	report := models.NewReport(base.Name, merge.Name, m.opts.Threshold, m.opts.TopK)
	logger := m.logger.With(logging.RunID(report.RunID))
	logger.Info("catalogs flattened",
		logging.String("base", base.Name),
		logging.Int("base_units", len(baseUnits)),
		logging.String("merge", merge.Name),
		logging.Int("merge_units", len(mergeUnits)))

	if len(baseUnits) == 0 || len(mergeUnits) == 0 {
		return nil, ErrEmptyCorpus
	}

	embedder, release, err := m.acquire(logger)
	if err != nil {
		return nil, err
	}
	defer release()
	report.Model = embedder.ModelID()

	start := time.Now()
	baseVecs, err := embed(ctx, embedder, baseUnits)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", base.Name, err)
	}
	mergeVecs, err := embed(ctx, embedder, mergeUnits)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", merge.Name, err)
	}
	logger.Info("text units embedded",
		logging.String("model", report.Model),
		logging.Duration("elapsed", time.Since(start)))

	start = time.Now()
	matrix, err := similarity.Score(ctx, baseVecs, mergeVecs)
	if err != nil {
		return nil, fmt.Errorf("score similarities: %w", err)
	}
	logger.Debug("similarity matrix computed",
		logging.Int("rows", matrix.Rows()),
		logging.Int("cols", matrix.Cols()),
		logging.Duration("elapsed", time.Since(start)))

	report.Entries = make([]models.ReportEntry, len(mergeUnits))
	for i, unit := range mergeUnits {
		report.Entries[i] = models.ReportEntry{
			Unit:    unit,
			Matches: match.Select(matrix.Row(i), baseUnits, m.opts.TopK, m.opts.Threshold),
		}
	}
	logger.Info("matches selected",
		logging.Float64("threshold", m.opts.Threshold),
		logging.Int("top_k", m.opts.TopK),
		logging.Int("matched_units", report.MatchedCount()),
		logging.Int("total_units", len(report.Entries)))
	return report, nil
}

// acquire returns the provider for a run and the func that releases it.
func (m *Matcher) acquire(logger *slog.Logger) (embeddings.Embedder, func(), error) {
	if m.open == nil {
		return m.embedder, func() {}, nil
	}
	e, err := m.open()
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := e.Close(); err != nil {
			logger.Warn("failed to close embedding provider", logging.Error(err))
		}
	}
	return e, release, nil
}

// embed makes a single batched provider call for a catalog and checks the vector count.
func embed(ctx context.Context, embedder embeddings.Embedder, units []models.TextUnit) ([][]float32, error) {
	vecs, err := embedder.Embed(ctx, models.Texts(units))
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(units) {
		return nil, fmt.Errorf("provider returned %d vectors for %d text units", len(vecs), len(units))
	}
	return vecs, nil
}
