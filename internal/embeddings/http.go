// ABOUTME: HTTP embedding provider for OpenAI-compatible /embeddings endpoints.
// ABOUTME: Works with Ollama, llama.cpp, text-embeddings-inference, and hosted APIs.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultBatchSize   = 64
	defaultHTTPTimeout = 2 * time.Minute
)

// HTTPEmbedder requests embeddings from a remote API. It is safe for concurrent use.
type HTTPEmbedder struct {
	apiURL    string
	apiKey    string
	model     string
	batchSize int
	client    *http.Client

	mu  sync.Mutex
	dim int
}

// HTTPOption configures optional HTTPEmbedder settings.
type HTTPOption func(*HTTPEmbedder)

// WithBatchSize caps the number of texts sent per request. Non-positive values keep the default.
func WithBatchSize(n int) HTTPOption {
	return func(e *HTTPEmbedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithTimeout sets the per-request client timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) HTTPOption {
	return func(e *HTTPEmbedder) {
		if d > 0 {
			e.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(e *HTTPEmbedder) {
		if c != nil {
			e.client = c
		}
	}
}

// NewHTTPEmbedder creates an embedder for the API rooted at apiURL (for example
// http://localhost:11434/v1). apiKey may be empty for local servers.
func NewHTTPEmbedder(apiURL, apiKey, model string, opts ...HTTPOption) *HTTPEmbedder {
	e := &HTTPEmbedder{
		apiURL:    strings.TrimRight(apiURL, "/"),
		apiKey:    apiKey,
		model:     model,
		batchSize: defaultBatchSize,
		client:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// embeddingRequest is the JSON body sent to POST /embeddings.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the response envelope from POST /embeddings.
type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed sends the texts in batches of at most batchSize and returns vectors in input order.
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	normalized := NormalizeAll(texts)

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(normalized); start += e.batchSize {
		end := min(start+e.batchSize, len(normalized))
		vecs, err := e.embedBatch(ctx, normalized[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end-1, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *HTTPEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: batch})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.apiURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("embedding API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Data) != len(batch) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(parsed.Data), len(batch))
	}

	vecs := make([][]float32, len(batch))
	dim := e.Dimension()
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(batch) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("embedding API returned invalid or duplicate index %d", d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embedding API returned an empty vector at index %d", d.Index)
		}
		if dim == 0 {
			dim = len(d.Embedding)
		}
		if len(d.Embedding) != dim {
			return nil, fmt.Errorf("embedding API returned %d dimensions at index %d, want %d", len(d.Embedding), d.Index, dim)
		}
		vecs[d.Index] = d.Embedding
	}
	if err := e.recordDimension(dim); err != nil {
		return nil, err
	}
	return vecs, nil
}

// recordDimension pins the vector size on first use and rejects later drift.
func (e *HTTPEmbedder) recordDimension(dim int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dim == 0 {
		e.dim = dim
	}
	if e.dim != dim {
		return fmt.Errorf("embedding API returned %d dimensions, want %d", dim, e.dim)
	}
	return nil
}

// Dimension returns the vector size observed in the first response, or 0 before any call.
func (e *HTTPEmbedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

// ModelID returns the configured model name.
func (e *HTTPEmbedder) ModelID() string {
	return e.model
}

// Close releases idle connections.
func (e *HTTPEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// ValidateConnection tests the endpoint by embedding a short sample string.
// The context allows cancellation when the user quits during validation.
func ValidateConnection(ctx context.Context, apiURL, apiKey, model string) error {
	e := NewHTTPEmbedder(apiURL, apiKey, model, WithTimeout(10*time.Second))
	defer func() { _ = e.Close() }()

	if _, err := e.Embed(ctx, []string{"access control policy"}); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return nil
}
