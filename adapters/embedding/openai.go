package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"autosense/internal/errors"
)

// Config selects and configures the remote embedding client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Dim is the dimension the model returns, reported by Dimension.
	Dim int
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint. Vectors are
// memoized per input text so repeated lookups within a process are identical
// and free.
type OpenAIEmbedder struct {
	config Config
	client *http.Client
	memo   *ttlcache.Cache[string, []float64]
}

// NewOpenAIEmbedder creates a remote embedder
func NewOpenAIEmbedder(config Config) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing embedding API key")
	}
	config.BaseURL = strings.TrimSpace(config.BaseURL)
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Dim <= 0 {
		config.Dim = 1536
	}

	return &OpenAIEmbedder{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		memo: ttlcache.New[string, []float64](
			ttlcache.WithCapacity[string, []float64](4096),
			ttlcache.WithDisableTouchOnHit[string, []float64](),
		),
	}, nil
}

// Dimension returns the configured vector length
func (c *OpenAIEmbedder) Dimension() int {
	return c.config.Dim
}

// Embed returns the vector for text, calling the API on a memo miss
func (c *OpenAIEmbedder) Embed(text string) ([]float64, error) {
	if item := c.memo.Get(text); item != nil {
		return item.Value(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	vec, err := c.request(ctx, text)
	if err != nil {
		return nil, err
	}
	c.memo.Set(text, vec, ttlcache.NoTTL)
	return vec, nil
}

func (c *OpenAIEmbedder) request(ctx context.Context, text string) ([]float64, error) {
	type reqBody struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}
	raw, err := json.Marshal(reqBody{Model: c.config.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.ExternalServiceError("embedding", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.ExternalServiceError("embedding", fmt.Errorf("http %d: %s", resp.StatusCode, string(respRaw)))
	}

	type respBody struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Data) == 0 || len(decoded.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response missing data")
	}
	return decoded.Data[0].Embedding, nil
}
