package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"retail-ops/internal/apperrors"
)

// Client talks to the sentence-embedding inference service over HTTP.
// The service hosts a fixed multilingual model; for identical input and
// model version the returned vector is deterministic and L2-normalized.
type Client struct {
	BaseURL string
	Model   string
	client  *http.Client
}

func NewClient(baseURL, model string) *Client {
	return &Client{
		BaseURL: baseURL,
		Model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type encodeRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	Normalize bool     `json:"normalize"`
}

type encodeResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Encode returns the unit vector for a single text.
func (c *Client) Encode(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeBatch encodes several texts in one round trip.
func (c *Client) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := encodeRequest{
		Model:     c.Model,
		Input:     texts,
		Normalize: true,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/encode", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embedding service unreachable: %w: %w", apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding request failed with status %d: %s: %w",
			resp.StatusCode, string(body), apperrors.ErrUpstreamUnavailable)
	}

	var encResp encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&encResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(encResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(encResp.Embeddings))
	}
	return encResp.Embeddings, nil
}
