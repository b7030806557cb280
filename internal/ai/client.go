// Package ai consumes the hosted AI capabilities the engine depends on:
// text embeddings and semantic term comparison. The engine never defaults
// a RAG verdict when these calls fail; errors surface to the caller.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable marks a missing or unconfigured capability (no base URL
// or credentials). It maps to HTTP 503 at the boundary: a configuration
// error, not a data error.
var ErrUnavailable = errors.New("ai capability not configured")

// Severity levels reported by the semantic comparison capability.
const (
	SeverityNone  = "none"
	SeverityMinor = "minor"
	SeverityMajor = "major"
)

// TermComparison is the semantic comparison verdict for one pre-agreed
// term against a clause.
type TermComparison struct {
	Matches  bool   `json:"matches"`
	Severity string `json:"severity"`
}

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	cache *EmbedCache
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// WithCache attaches an optional embedding cache. Cache failures degrade
// to a live call, never to a request failure.
func (c *Client) WithCache(cache *EmbedCache) *Client {
	c.cache = cache
	return c
}

func (c *Client) configured() bool {
	return c != nil && c.BaseURL != "" && c.APIKey != ""
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.configured() {
		return nil, ErrUnavailable
	}
	if c.cache != nil {
		if vec, ok := c.cache.Get(ctx, text); ok {
			return vec, nil
		}
	}
	body := map[string]any{"input": text}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/embeddings", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	out, err := doJSON[struct {
		Embedding []float32 `json:"embedding"`
	}](c, req)
	if err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned an empty vector")
	}
	if c.cache != nil {
		c.cache.Put(ctx, text, out.Embedding)
	}
	return out.Embedding, nil
}

// CompareTerm asks the semantic comparison capability whether the clause
// satisfies the expected term value.
func (c *Client) CompareTerm(ctx context.Context, clauseText, termCategory, expectedValue string) (TermComparison, error) {
	if !c.configured() {
		return TermComparison{}, ErrUnavailable
	}
	body := map[string]any{
		"clause_text":    clauseText,
		"term_category":  termCategory,
		"expected_value": expectedValue,
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/term-compare", bytes.NewReader(b))
	if err != nil {
		return TermComparison{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	out, err := doJSON[TermComparison](c, req)
	if err != nil {
		return TermComparison{}, err
	}
	return *out, nil
}

func doJSON[T any](c *Client, req *http.Request) (*T, error) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return nil, fmt.Errorf("ai service http %d: %v", resp.StatusCode, errBody)
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
