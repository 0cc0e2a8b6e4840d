package predictapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/flat-price/internal/domain/predictionform"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "http://localhost:8080/api/predict"

// Client posts form states to the prediction endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a prediction client. A zero timeout leaves requests unbounded
// apart from the caller's context.
func NewClient(endpoint string, timeout time.Duration) *Client {
	url := strings.TrimSpace(endpoint)
	if url == "" {
		url = DefaultEndpoint
	}
	return &Client{
		endpoint:   url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict sends the full form as JSON and decodes the three model outputs.
// Any non-2xx status is a failure; its body is not inspected.
func (c *Client) Predict(ctx context.Context, form predictionform.FormState) (predictionform.PredictionResult, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return predictionform.PredictionResult{}, fmt.Errorf("encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return predictionform.PredictionResult{}, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return predictionform.PredictionResult{}, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return predictionform.PredictionResult{}, fmt.Errorf("predict request error: status=%d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return predictionform.PredictionResult{}, fmt.Errorf("read predict response: %w", err)
	}
	result, err := decodeResult(payload)
	if err != nil {
		return predictionform.PredictionResult{}, fmt.Errorf("decode predict response: %w", err)
	}
	return result, nil
}

var resultKeys = []string{"predicted_price", "predicted_price_gbm", "predicted_price_xgbm"}

// decodeResult requires all three keys, each a JSON number or null. Extra keys are ignored.
func decodeResult(payload []byte) (predictionform.PredictionResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return predictionform.PredictionResult{}, err
	}
	if raw == nil {
		return predictionform.PredictionResult{}, fmt.Errorf("response is not an object")
	}
	values := make([]*float64, len(resultKeys))
	for i, key := range resultKeys {
		field, ok := raw[key]
		if !ok {
			return predictionform.PredictionResult{}, fmt.Errorf("missing %s", key)
		}
		value, err := decodeNullableNumber(field)
		if err != nil {
			return predictionform.PredictionResult{}, fmt.Errorf("%s: %w", key, err)
		}
		values[i] = value
	}
	return predictionform.PredictionResult{
		LinearRegression: values[0],
		GBM:              values[1],
		XGBM:             values[2],
	}, nil
}

func decodeNullableNumber(raw json.RawMessage) (*float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if len(trimmed) == 0 || !(trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')) {
		return nil, fmt.Errorf("expected number or null, got %s", string(trimmed))
	}
	var value float64
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, err
	}
	return &value, nil
}

var _ predictionform.Predictor = (*Client)(nil)
