// ABOUTME: Cosine similarity and dense score matrices between two vector sets.
// ABOUTME: Rows (merge side) are scored in parallel; output is identical to a sequential pass.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyInput is returned when either vector set is empty.
	ErrEmptyInput = errors.New("similarity: both vector sets must be non-empty")

	// ErrDimensionMismatch is returned when vectors do not share one dimension.
	ErrDimensionMismatch = errors.New("similarity: vector dimensions differ")
)

// Cosine computes the cosine similarity between two vectors, clamped to [-1, 1].
// Vectors of different length or zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, score))
}

// Matrix is a dense row-major score matrix. Row i is a merge unit, column j a base unit.
type Matrix struct {
	rows, cols int
	data       []float64
}

// Rows returns the number of merge-side units.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of base-side units.
func (m *Matrix) Cols() int { return m.cols }

// At returns the similarity between merge unit i and base unit j.
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

// Row returns the scores of merge unit i against every base unit. The slice aliases the
// matrix and must not be modified.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// Score computes the full matrix of cosine similarities, shape [len(merge), len(base)].
func Score(ctx context.Context, base, merge [][]float32) (*Matrix, error) {
	if len(base) == 0 || len(merge) == 0 {
		return nil, ErrEmptyInput
	}
	dim := len(base[0])
	if err := checkDimension(base, dim, "base"); err != nil {
		return nil, err
	}
	if err := checkDimension(merge, dim, "merge"); err != nil {
		return nil, err
	}

	baseNorms := norms(base)
	m := &Matrix{rows: len(merge), cols: len(base), data: make([]float64, len(merge)*len(base))}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range merge {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scoreRow(m.data[i*m.cols:(i+1)*m.cols], merge[i], base, baseNorms)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

func checkDimension(vecs [][]float32, dim int, side string) error {
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("%w: %s vector %d has %d dimensions, want %d", ErrDimensionMismatch, side, i, len(v), dim)
		}
	}
	return nil
}

func norms(vecs [][]float32) []float64 {
	out := make([]float64, len(vecs))
	for i, v := range vecs {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		out[i] = math.Sqrt(sum)
	}
	return out
}

func scoreRow(dst []float64, query []float32, base [][]float32, baseNorms []float64) {
	var qsum float64
	for _, x := range query {
		qsum += float64(x) * float64(x)
	}
	qnorm := math.Sqrt(qsum)

	for j, b := range base {
		if qnorm == 0 || baseNorms[j] == 0 {
			dst[j] = 0
			continue
		}
		var dot float64
		for k := range query {
			dot += float64(query[k]) * float64(b[k])
		}
		dst[j] = math.Max(-1, math.Min(1, dot/(qnorm*baseNorms[j])))
	}
}
