// ABOUTME: Local sentence-transformer embeddings through ONNX Runtime.
// ABOUTME: Tokenizes with a HuggingFace tokenizer.json, mean-pools, and L2-normalises.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

const defaultONNXBatchSize = 32

// ONNXConfig locates the model files and shapes the inference batches.
type ONNXConfig struct {
	ModelPath     string
	TokenizerPath string
	// LibraryPath points at the onnxruntime shared library; empty uses the platform default.
	LibraryPath string
	// Dimension is the hidden size of the model (384 for all-MiniLM-L6-v2).
	Dimension int
	MaxSeqLen int
	BatchSize int
}

// ONNXEmbedder runs a BERT-style encoder locally. Calls to Embed run one at a time.
type ONNXEmbedder struct {
	mu        sync.Mutex
	cfg       ONNXConfig
	tk        *tokenizer.Tokenizer
	session   *ort.DynamicAdvancedSession
	ownsEnv   bool
	modelID   string
	batchSize int
}

// NewONNXEmbedder loads the tokenizer and model and initialises the ONNX Runtime environment
// if no other component has done so.
func NewONNXEmbedder(cfg ONNXConfig) (*ONNXEmbedder, error) {
	if cfg.Dimension <= 0 || cfg.MaxSeqLen <= 0 {
		return nil, errors.New("onnx embedder: dimension and max sequence length must be positive")
	}
	for _, p := range []string{cfg.ModelPath, cfg.TokenizerPath} {
		if p == "" {
			return nil, errors.New("onnx embedder: model and tokenizer paths are required")
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("onnx embedder: %w", err)
		}
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("onnx embedder: load tokenizer: %w", err)
	}

	e := &ONNXEmbedder{
		cfg:       cfg,
		tk:        tk,
		modelID:   strings.TrimSuffix(filepath.Base(cfg.ModelPath), filepath.Ext(cfg.ModelPath)),
		batchSize: cfg.BatchSize,
	}
	if e.batchSize <= 0 || e.batchSize > defaultONNXBatchSize {
		e.batchSize = defaultONNXBatchSize
	}

	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("onnx embedder: initialize runtime: %w", err)
		}
		e.ownsEnv = true
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil)
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("onnx embedder: create session: %w", err)
	}
	e.session = session
	return e, nil
}

// Embed encodes texts in fixed-size inference batches and returns vectors in input order.
func (e *ONNXEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("onnx embedder is closed")
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embedBatch(NormalizeAll(texts[start:end]))
		if err != nil {
			return nil, fmt.Errorf("onnx batch %d-%d: %w", start, end-1, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// encodedBatch is a padded, row-major token batch.
type encodedBatch struct {
	size, seqLen                int
	inputIDs, mask, tokenTypeID []int64
}

func (e *ONNXEmbedder) encode(texts []string) (*encodedBatch, error) {
	tokenIDs := make([][]int, len(texts))
	seqLen := 1
	for i, text := range texts {
		enc, err := e.tk.EncodeSingle(text, true)
		if err != nil {
			return nil, fmt.Errorf("tokenize text %d: %w", i, err)
		}
		tokenIDs[i] = truncateIDs(unpadded(enc), e.cfg.MaxSeqLen)
		seqLen = max(seqLen, len(tokenIDs[i]))
	}

	b := &encodedBatch{
		size:        len(texts),
		seqLen:      seqLen,
		inputIDs:    make([]int64, len(texts)*seqLen),
		mask:        make([]int64, len(texts)*seqLen),
		tokenTypeID: make([]int64, len(texts)*seqLen),
	}
	for i, ids := range tokenIDs {
		row := i * seqLen
		for j, id := range ids {
			b.inputIDs[row+j] = int64(id)
			b.mask[row+j] = 1
		}
	}
	return b, nil
}

// unpadded drops padding a tokenizer.json may configure, using the attention mask.
func unpadded(enc *tokenizer.Encoding) []int {
	if len(enc.AttentionMask) != len(enc.Ids) {
		return enc.Ids
	}
	n := 0
	for _, m := range enc.AttentionMask {
		if m != 0 {
			n++
		}
	}
	return enc.Ids[:n]
}

// truncateIDs keeps the first maxLen-1 ids plus the trailing separator.
func truncateIDs(ids []int, maxLen int) []int {
	if len(ids) <= maxLen {
		return ids
	}
	out := make([]int, maxLen)
	copy(out, ids[:maxLen-1])
	out[maxLen-1] = ids[len(ids)-1]
	return out
}

func (e *ONNXEmbedder) embedBatch(texts []string) ([][]float32, error) {
	b, err := e.encode(texts)
	if err != nil {
		return nil, err
	}
	shape := ort.NewShape(int64(b.size), int64(b.seqLen))

	ids, err := ort.NewTensor(shape, b.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer func() { _ = ids.Destroy() }()
	mask, err := ort.NewTensor(shape, b.mask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer func() { _ = mask.Destroy() }()
	types, err := ort.NewTensor(shape, b.tokenTypeID)
	if err != nil {
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer func() { _ = types.Destroy() }()

	hidden, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(b.size), int64(b.seqLen), int64(e.cfg.Dimension)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer func() { _ = hidden.Destroy() }()

	if err := e.session.Run([]ort.Value{ids, mask, types}, []ort.Value{hidden}); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	return meanPool(hidden.GetData(), b.mask, b.size, b.seqLen, e.cfg.Dimension), nil
}

// meanPool averages token vectors under the attention mask and L2-normalises each result.
func meanPool(hidden []float32, mask []int64, batch, seqLen, dim int) [][]float32 {
	out := make([][]float32, batch)
	for i := 0; i < batch; i++ {
		sum := make([]float64, dim)
		var count float64
		for t := 0; t < seqLen; t++ {
			if mask[i*seqLen+t] == 0 {
				continue
			}
			count++
			base := (i*seqLen + t) * dim
			for d := 0; d < dim; d++ {
				sum[d] += float64(hidden[base+d])
			}
		}

		vec := make([]float32, dim)
		if count == 0 {
			out[i] = vec
			continue
		}
		var norm float64
		for d := range sum {
			sum[d] /= count
			norm += sum[d] * sum[d]
		}
		norm = math.Sqrt(norm)
		for d := range sum {
			if norm > 0 {
				vec[d] = float32(sum[d] / norm)
			}
		}
		out[i] = vec
	}
	return out
}

// Dimension returns the configured hidden size.
func (e *ONNXEmbedder) Dimension() int {
	return e.cfg.Dimension
}

// ModelID returns the model file name without extension.
func (e *ONNXEmbedder) ModelID() string {
	return e.modelID
}

// Close destroys the session and, if this embedder created it, the runtime environment.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	if e.session != nil {
		errs = append(errs, e.session.Destroy())
		e.session = nil
	}
	if e.ownsEnv {
		errs = append(errs, ort.DestroyEnvironment())
		e.ownsEnv = false
	}
	return errors.Join(errs...)
}
