// Package readings implements the reading-ingestion-and-relay pipeline:
// validation of inbound sensor payloads, relay to the stress-prediction
// service, and the blind overwrite of the per-user latest document.
//
// Control flow is strictly linear per request -- validation, prediction,
// persistence -- with no retries and no shared mutable state. The first hard
// failure (validation, missing credentials, prediction) aborts the request;
// a persistence failure is absorbed after logging, so the device still
// receives the prediction it asked for.
package readings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vitalink/internal/external"
	"vitalink/internal/types"
)

// IngestRequest is the decoded inbound device payload. All vitals are
// pointers so that an absent field is distinguishable from an explicit zero.
// spo2 is accepted for devices on the pulse-oximeter firmware variant; it is
// carried into the reading but takes no part in the prediction envelope.
type IngestRequest struct {
	HR     *float64 `json:"hr" validate:"required"`
	HRV    *float64 `json:"hrv"`
	BT     *float64 `json:"bt"`
	SpO2   *float64 `json:"spo2"`
	UserID string   `json:"userId" validate:"required"`
}

// IngestResult is the outcome reported to the device on success.
type IngestResult struct {
	Prediction string
}

// DocumentWriter is the persistence contract the pipeline depends on.
type DocumentWriter interface {
	// Configured reports whether write credentials are present. Called
	// before any outbound call so misconfiguration surfaces as a
	// configuration error, not an upstream one.
	Configured() error

	// WriteLatest blind-overwrites the per-user latest document.
	WriteLatest(ctx context.Context, userID string, doc types.DisplayDocument) error
}

// Metrics is the telemetry contract for the pipeline.
type Metrics interface {
	// RecordPrediction records the outcome and latency of one relay call.
	RecordPrediction(ctx context.Context, outcome string, duration time.Duration)

	// RecordPersistenceFailure counts a swallowed document-store write failure.
	RecordPersistenceFailure(ctx context.Context)
}

// NoopMetrics discards all telemetry. Used when metrics are disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordPrediction(context.Context, string, time.Duration) {}
func (NoopMetrics) RecordPersistenceFailure(context.Context)                {}

// Service orchestrates the three pipeline stages. It holds no per-request
// state; one instance serves all concurrent invocations.
type Service struct {
	predictor external.PredictorClient
	store     DocumentWriter
	metrics   Metrics
	logger    *slog.Logger

	// now is the write-time clock; injected for testability.
	now func() time.Time
}

// ServiceOption is a functional option for configuring a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used to stamp display documents.
// This is intended for testing.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics sets the telemetry collector for the pipeline.
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates the ingestion pipeline with the given collaborators.
func NewService(
	predictor external.PredictorClient,
	store DocumentWriter,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		predictor: predictor,
		store:     store,
		metrics:   NoopMetrics{},
		logger:    logger,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ingest runs one reading through the full pipeline and returns the
// prediction to report to the device.
//
// Stage order and failure policy:
//  1. Presence validation -- missing hr or userId rejects with a 400-class
//     error before any outbound call.
//  2. Credential check -- missing store credentials reject with a 500-class
//     error before any outbound call.
//  3. Prediction relay -- transport failures and malformed upstream
//     responses abort with a 500-class error; no document write happens.
//  4. Document write -- failures are logged and counted but deliberately do
//     NOT abort the request: the prediction succeeded, and the device
//     learns it regardless of whether the dashboard document landed.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	reading, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	if err := s.store.Configured(); err != nil {
		return nil, err
	}

	start := time.Now()
	prediction, err := s.predictor.Classify(ctx, reading)
	if err != nil {
		s.metrics.RecordPrediction(ctx, predictionOutcome(err), time.Since(start))
		return nil, err
	}
	s.metrics.RecordPrediction(ctx, types.OutcomeSuccess, time.Since(start))

	doc := types.DisplayDocument{
		StressLevel:   prediction.StressLevel,
		HeartRate:     reading.HeartRate,
		Timestamp:     s.now().UTC(),
		Probabilities: prediction.Probabilities,
	}

	if err := s.store.WriteLatest(ctx, reading.UserID, doc); err != nil {
		// Documented partial-failure policy: the caller already has a valid
		// prediction, so a lost dashboard write must not fail the request.
		s.logger.ErrorContext(ctx, "latest document write failed; continuing",
			"user_id", reading.UserID,
			"error", err,
		)
		s.metrics.RecordPersistenceFailure(ctx)
	}

	return &IngestResult{Prediction: prediction.StressLevel}, nil
}

// validate applies the presence checks of the ingestion contract. The source
// system treated a zero heart rate as absent (a live sensor never reports 0
// bpm), so both nil and zero reject. No range checks, no coercion.
func (s *Service) validate(req IngestRequest) (types.SensorReading, error) {
	if req.HR == nil || *req.HR == 0 {
		return types.SensorReading{}, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"missing required field: hr",
			nil,
		)
	}
	if req.UserID == "" {
		return types.SensorReading{}, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"missing required field: userId",
			nil,
		)
	}

	return types.SensorReading{
		UserID:               req.UserID,
		HeartRate:            *req.HR,
		HeartRateVariability: req.HRV,
		BodyTemperature:      req.BT,
		OxygenSaturation:     req.SpO2,
	}, nil
}

// predictionOutcome maps a relay error to its metric dimension value.
func predictionOutcome(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamBadResponse {
		return types.OutcomeBadResponse
	}
	return types.OutcomeCallFailed
}
