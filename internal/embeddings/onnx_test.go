// ABOUTME: Tests for the ONNX embedder's pure helpers and argument checks.
// ABOUTME: Inference itself needs the runtime library and a model, so it is not exercised here.
package embeddings

import (
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sugarme/tokenizer"
)

func TestNewONNXEmbedderMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewONNXEmbedder(ONNXConfig{
		ModelPath:     filepath.Join(dir, "model.onnx"),
		TokenizerPath: filepath.Join(dir, "tokenizer.json"),
		Dimension:     384,
		MaxSeqLen:     256,
	})
	if err == nil {
		t.Fatal("expected error for missing model file")
	}
	if !strings.Contains(err.Error(), "model.onnx") {
		t.Errorf("expected error to name the model file, got %v", err)
	}
}

func TestNewONNXEmbedderRequiresPaths(t *testing.T) {
	if _, err := NewONNXEmbedder(ONNXConfig{Dimension: 384, MaxSeqLen: 256}); err == nil {
		t.Error("expected error for empty paths")
	}
	if _, err := NewONNXEmbedder(ONNXConfig{ModelPath: "m", TokenizerPath: "t"}); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestTruncateIDs(t *testing.T) {
	tests := []struct {
		ids    []int
		maxLen int
		want   []int
	}{
		{[]int{101, 5, 6, 102}, 8, []int{101, 5, 6, 102}},
		{[]int{101, 5, 6, 7, 8, 102}, 4, []int{101, 5, 6, 102}},
		{[]int{101, 102}, 2, []int{101, 102}},
	}
	for _, tt := range tests {
		if got := truncateIDs(tt.ids, tt.maxLen); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("truncateIDs(%v, %d) = %v, want %v", tt.ids, tt.maxLen, got, tt.want)
		}
	}
}

func TestUnpadded(t *testing.T) {
	enc := &tokenizer.Encoding{
		Ids:           []int{101, 7, 102, 0, 0},
		AttentionMask: []int{1, 1, 1, 0, 0},
	}
	if got := unpadded(enc); !reflect.DeepEqual(got, []int{101, 7, 102}) {
		t.Errorf("unpadded = %v", got)
	}

	noMask := &tokenizer.Encoding{Ids: []int{101, 102}}
	if got := unpadded(noMask); !reflect.DeepEqual(got, []int{101, 102}) {
		t.Errorf("unpadded without mask = %v", got)
	}
}

func TestMeanPool(t *testing.T) {
	// Two sequences of length 2 with dimension 2; the second has one padded token.
	hidden := []float32{
		1, 0, 3, 0,
		0, 2, 9, 9,
	}
	mask := []int64{1, 1, 1, 0}

	got := meanPool(hidden, mask, 2, 2, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(got))
	}
	if math.Abs(float64(got[0][0])-1) > 1e-6 || got[0][1] != 0 {
		t.Errorf("first vector = %v, want [1 0]", got[0])
	}
	if got[1][0] != 0 || math.Abs(float64(got[1][1])-1) > 1e-6 {
		t.Errorf("second vector ignored mask: %v", got[1])
	}
}

func TestMeanPoolAllMasked(t *testing.T) {
	got := meanPool([]float32{1, 1}, []int64{0}, 1, 1, 2)
	if got[0][0] != 0 || got[0][1] != 0 {
		t.Errorf("expected zero vector, got %v", got[0])
	}
}
