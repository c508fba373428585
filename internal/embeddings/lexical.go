// ABOUTME: Model-free embedding provider using hashed term-frequency vectors.
// ABOUTME: Deterministic and offline; useful without a model server and in tests.
package embeddings

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const defaultLexicalDimension = 1024

// minTokenLen drops very short tokens such as articles and list markers.
const minTokenLen = 3

// LexicalEmbedder maps texts to L2-normalised term-frequency vectors via feature hashing.
type LexicalEmbedder struct {
	dim int
}

// NewLexicalEmbedder creates a lexical embedder with dim buckets. Non-positive dim uses 1024.
func NewLexicalEmbedder(dim int) *LexicalEmbedder {
	if dim <= 0 {
		dim = defaultLexicalDimension
	}
	return &LexicalEmbedder{dim: dim}
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit,
// dropping tokens shorter than three characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < minTokenLen {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Embed returns one vector per text. Texts without tokens map to the zero vector.
func (e *LexicalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(NormalizeText(text))
	}
	return out, nil
}

func (e *LexicalEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range Tokenize(text) {
		vec[xxhash.Sum64String(tok)%uint64(e.dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// Dimension returns the number of hash buckets.
func (e *LexicalEmbedder) Dimension() int {
	return e.dim
}

// ModelID identifies the lexical model and its bucket count.
func (e *LexicalEmbedder) ModelID() string {
	return fmt.Sprintf("lexical-%d", e.dim)
}

// Close is a no-op.
func (e *LexicalEmbedder) Close() error {
	return nil
}
