// Package client talks to a running KScore service over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

// Weights is the persisted weight pair as reported by the service.
type Weights struct {
	P      float64        `json:"p"`
	R      float64        `json:"r"`
	Sum    float64        `json:"sum"`
	Bounds scoring.Bounds `json:"bounds"`
}

type Client interface {
	Weights(ctx context.Context) (*Weights, error)
	SetWeights(ctx context.Context, w scoring.WeightSet) (*Weights, error)
	ResetWeights(ctx context.Context) (*Weights, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("kscore %s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("kscore %s %s: %d %s", method, path, resp.StatusCode, string(data))
	}
	return json.Unmarshal(data, out)
}

func (c *HTTPClient) Weights(ctx context.Context) (*Weights, error) {
	var w Weights
	if err := c.doReq(ctx, "GET", "/api/v1/weights", nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *HTTPClient) SetWeights(ctx context.Context, ws scoring.WeightSet) (*Weights, error) {
	var w Weights
	if err := c.doReq(ctx, "PUT", "/api/v1/weights", ws, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *HTTPClient) ResetWeights(ctx context.Context) (*Weights, error) {
	var w Weights
	if err := c.doReq(ctx, "POST", "/api/v1/weights/reset", nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}
