package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"vitalink/internal/types"
)

// PredictorClientConfig holds the configuration for creating a PredictorHTTPClient.
type PredictorClientConfig struct {
	// URL is the full prediction endpoint the request is POSTed to.
	URL    string
	Logger *slog.Logger
}

// predictionRequest is the envelope sent to the prediction service. The
// service classifies from raw sensor values, keyed by its fixed uppercase
// field names. Optional vitals the device did not measure are omitted, never
// defaulted to zero -- a zero HRV is a meaningful (and alarming) measurement.
type predictionRequest struct {
	Mode string    `json:"mode"`
	Raw  rawVitals `json:"raw"`
}

type rawVitals struct {
	HR  float64  `json:"HR"`
	HRV *float64 `json:"HRV,omitempty"`
	BT  *float64 `json:"BT,omitempty"`
}

// predictionResponse is the response from the prediction service.
type predictionResponse struct {
	StressLevel   string             `json:"stress_level"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// upstreamError is the error body shape the prediction service returns on
// failures. Best-effort: absence of a parseable body falls back to the raw
// status line.
type upstreamError struct {
	Error string `json:"error"`
}

// PredictorHTTPClient relays sensor readings to the hosted stress-prediction
// API through BaseClient. This routes the call through the circuit breaker
// and error mapping, and makes testing with httptest straightforward.
type PredictorHTTPClient struct {
	base   *BaseClient
	url    string
	logger *slog.Logger
}

// NewPredictorClient creates a new PredictorHTTPClient. The httpClient
// timeout should be set appropriately for the prediction API (e.g., 30
// seconds); the pipeline imposes no timeout of its own.
func NewPredictorClient(httpClient *http.Client, cfg PredictorClientConfig) *PredictorHTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PredictorHTTPClient{
		base:   NewBaseClient(httpClient, "predictor", "VitaLink/1.0"),
		url:    cfg.URL,
		logger: logger,
	}
}

// NewPredictorClientWithBase creates a PredictorHTTPClient with a
// pre-configured BaseClient. This is useful for testing when you want to
// control the BaseClient configuration (e.g., share a breaker).
func NewPredictorClientWithBase(base *BaseClient, cfg PredictorClientConfig) *PredictorHTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PredictorHTTPClient{
		base:   base,
		url:    cfg.URL,
		logger: logger,
	}
}

// Classify sends the reading to the prediction service in raw mode and
// interprets the response.
//
// Identical readings produce identical requests; the call holds no state and
// simply propagates whatever the prediction service returns:
//   - transport failure or non-2xx status -> upstream_call_failed
//   - 2xx response missing stress_level   -> upstream_bad_response
//   - 2xx with stress_level               -> PredictionResult, with
//     probabilities passed through when present and nil when absent.
func (c *PredictorHTTPClient) Classify(ctx context.Context, reading types.SensorReading) (*types.PredictionResult, error) {
	reqBody := predictionRequest{
		Mode: "raw",
		Raw: rawVitals{
			HR:  reading.HeartRate,
			HRV: reading.HeartRateVariability,
			BT:  reading.BodyTemperature,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to serialize prediction request",
			err,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create prediction request",
			err,
		)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.InfoContext(ctx, "relaying reading to prediction service",
		"hr", reading.HeartRate,
		"has_hrv", reading.HeartRateVariability != nil,
		"has_bt", reading.BodyTemperature != nil,
	)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.handleErrorResponse(ctx, resp)
	}

	var predResp predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&predResp); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamBadResponse,
			"failed to decode prediction response",
			err,
		)
	}

	if predResp.StressLevel == "" {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamBadResponse,
			"prediction response missing stress_level",
			nil,
		)
	}

	c.logger.InfoContext(ctx, "prediction received",
		"stress_level", predResp.StressLevel,
		"class_count", len(predResp.Probabilities),
	)

	return &types.PredictionResult{
		StressLevel:   predResp.StressLevel,
		Probabilities: predResp.Probabilities,
	}, nil
}

// handleErrorResponse reads the error body from a non-2xx response, logs the
// upstream detail server-side, and returns an upstream_call_failed error. The
// detail is carried in the wrapped error, never in the client-facing message.
func (c *PredictorHTTPClient) handleErrorResponse(ctx context.Context, resp *http.Response) *types.AppError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	detail := string(bodyBytes)
	var ue upstreamError
	if err := json.Unmarshal(bodyBytes, &ue); err == nil && ue.Error != "" {
		detail = ue.Error
	}

	c.logger.ErrorContext(ctx, "prediction service error",
		"status_code", resp.StatusCode,
		"detail", detail,
	)

	return types.NewAppError(
		types.ErrCodeUpstreamCallFailed,
		"stress prediction service returned an error",
		fmt.Errorf("predictor returned %d: %s", resp.StatusCode, detail),
	)
}

// Compile-time interface compliance check.
var _ PredictorClient = (*PredictorHTTPClient)(nil)
