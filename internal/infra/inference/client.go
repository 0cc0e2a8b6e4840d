package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/flat-price/internal/domain/valuation"
)

// Client calls the model inference service that hosts the trained regressors.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an inference client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	Features valuation.Features `json:"features"`
}

type scoreResponse struct {
	LinearRegression *float64 `json:"linear_regression"`
	GBM              *float64 `json:"gbm"`
	XGBM             *float64 `json:"xgboost"`
}

// Score posts the feature vector to {baseURL}/score.
func (c *Client) Score(ctx context.Context, features valuation.Features) (valuation.Scores, error) {
	if c.baseURL == "" {
		return valuation.Scores{}, errors.New("inference: base url not configured")
	}
	body, err := json.Marshal(scoreRequest{Features: features})
	if err != nil {
		return valuation.Scores{}, fmt.Errorf("encode score request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return valuation.Scores{}, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return valuation.Scores{}, fmt.Errorf("score request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return valuation.Scores{}, fmt.Errorf("score request error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return valuation.Scores{}, fmt.Errorf("decode score response: %w", err)
	}
	if decoded.LinearRegression == nil || decoded.GBM == nil || decoded.XGBM == nil {
		return valuation.Scores{}, errors.New("score response missing model output")
	}
	return valuation.Scores{
		LinearRegression: *decoded.LinearRegression,
		GBM:              *decoded.GBM,
		XGBM:             *decoded.XGBM,
	}, nil
}

var _ valuation.Scorer = (*Client)(nil)
