// ABOUTME: Tests for cosine similarity bounds and score matrix shape and orientation.
// ABOUTME: Checks identical-vector diagonals, dimension errors, and cancellation.
package similarity

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestCosineIdentical(t *testing.T) {
	a := []float32{1, 2, 3}
	score := Cosine(a, a)
	if math.Abs(score-1.0) > 0.0001 {
		t.Errorf("expected ~1.0 for identical vectors, got %f", score)
	}
}

func TestCosineOrthogonal(t *testing.T) {
	score := Cosine([]float32{1, 0, 0}, []float32{0, 1, 0})
	if math.Abs(score) > 0.0001 {
		t.Errorf("expected ~0.0 for orthogonal vectors, got %f", score)
	}
}

func TestCosineOpposite(t *testing.T) {
	score := Cosine([]float32{1, 0, 0}, []float32{-1, 0, 0})
	if math.Abs(score+1.0) > 0.0001 {
		t.Errorf("expected ~-1.0 for opposite vectors, got %f", score)
	}
}

func TestCosineDegenerate(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"different lengths", []float32{1, 2}, []float32{1, 2, 3}},
		{"empty", nil, nil},
		{"zero vector", []float32{0, 0}, []float32{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if score := Cosine(tt.a, tt.b); score != 0 {
				t.Errorf("expected 0, got %f", score)
			}
		})
	}
}

func TestScoreShapeAndOrientation(t *testing.T) {
	base := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	merge := [][]float32{{0, 1}, {1, 0}}

	m, err := Score(context.Background(), base, merge)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if m.Rows() != 2 || m.Cols() != 3 {
		t.Fatalf("expected 2x3 matrix, got %dx%d", m.Rows(), m.Cols())
	}
	// merge[0] = (0,1) matches base[1] exactly.
	if math.Abs(m.At(0, 1)-1) > 1e-9 {
		t.Errorf("expected At(0,1)=1, got %f", m.At(0, 1))
	}
	if math.Abs(m.At(1, 0)-1) > 1e-9 {
		t.Errorf("expected At(1,0)=1, got %f", m.At(1, 0))
	}
	if math.Abs(m.At(0, 0)) > 1e-9 {
		t.Errorf("expected At(0,0)=0, got %f", m.At(0, 0))
	}
	row := m.Row(1)
	if len(row) != 3 || row[0] != m.At(1, 0) || row[2] != m.At(1, 2) {
		t.Errorf("Row(1) does not match At: %v", row)
	}
}

func TestScoreMatchesCosineAndBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randVecs := func(n, dim int) [][]float32 {
		out := make([][]float32, n)
		for i := range out {
			out[i] = make([]float32, dim)
			for j := range out[i] {
				out[i][j] = rng.Float32()*2 - 1
			}
		}
		return out
	}
	base := randVecs(17, 24)
	merge := randVecs(11, 24)

	m, err := Score(context.Background(), base, merge)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	for i := range merge {
		for j := range base {
			got := m.At(i, j)
			if got < -1 || got > 1 {
				t.Fatalf("score out of range at (%d,%d): %f", i, j, got)
			}
			if want := Cosine(merge[i], base[j]); math.Abs(got-want) > 1e-12 {
				t.Errorf("At(%d,%d)=%f, Cosine=%f", i, j, got, want)
			}
		}
	}
}

func TestScoreSameVectorsOnBothAxes(t *testing.T) {
	vecs := [][]float32{{0.3, 0.4, 0.5}, {-1, 2, 0.5}, {9, 0, 1}}
	m, err := Score(context.Background(), vecs, vecs)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	for i := range vecs {
		if math.Abs(m.At(i, i)-1) > 1e-6 {
			t.Errorf("expected diagonal 1.0 at %d, got %f", i, m.At(i, i))
		}
	}
}

func TestScoreEmptyInput(t *testing.T) {
	vecs := [][]float32{{1, 0}}
	if _, err := Score(context.Background(), nil, vecs); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput for empty base, got %v", err)
	}
	if _, err := Score(context.Background(), vecs, nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput for empty merge, got %v", err)
	}
}

func TestScoreDimensionMismatch(t *testing.T) {
	base := [][]float32{{1, 0}, {0, 1}}
	merge := [][]float32{{1, 0, 0}}
	if _, err := Score(context.Background(), base, merge); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestScoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Score(ctx, [][]float32{{1}}, [][]float32{{1}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
