// Package embedding turns text into fixed-dimension vectors via an
// Ollama-compatible embedding endpoint.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration for a local nomic-embed-text model.
const (
	DefaultBaseURL   = "http://localhost:11434"
	DefaultModel     = "nomic-embed-text:latest"
	DefaultTimeout   = 30 * time.Second
	DefaultDimension = 768
)

// ErrService indicates the embedding service is unreachable, returned a
// non-success status, or produced a malformed response. It is distinct from
// input validation failures and may be retried by the caller.
var ErrService = errors.New("embedding service error")

// Config holds construction parameters for the embedding client.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model name (default: nomic-embed-text:latest).
	Model string

	// Timeout bounds each embedding request (default: 30s).
	Timeout time.Duration

	// Dimension is the expected vector size (default: 768).
	Dimension int
}

// Client calls the embedding model over HTTP. It holds no mutable state and
// is safe for concurrent use; retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	dimension  int
}

// embedRequest is the Ollama embeddings API request body.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the Ollama embeddings API response body.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewClient creates an embedding client, filling unset config with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = DefaultDimension
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimension:  cfg.Dimension,
	}
}

// Embed generates a vector for the given text. Any transport failure,
// non-2xx status, or response without a vector of the configured dimension
// fails with an error wrapping ErrService.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", ErrService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, detail)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrService, err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: response missing embedding field", ErrService)
	}
	if len(embedResp.Embedding) != c.dimension {
		return nil, fmt.Errorf("%w: got %d dimensions, expected %d",
			ErrService, len(embedResp.Embedding), c.dimension)
	}

	vector := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Dimension returns the configured vector size.
func (c *Client) Dimension() int {
	return c.dimension
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}
