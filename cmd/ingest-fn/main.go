// Package main is the entrypoint for the Ingest Lambda function, the
// serverless deployment of the reading-ingestion pipeline behind an API
// Gateway HTTP API.
//
// Cold Start (main):
//  1. Load and validate configuration (fail fast on missing credentials).
//  2. Initialize structured logger.
//  3. Initialize CloudWatch metrics collector (when enabled).
//  4. Initialize the prediction and document-store clients.
//  5. Build the pipeline service, register the handler, call lambda.Start.
//
// Handler flow per invocation:
//  1. Method guard: anything but POST gets 405 with Allow: POST, before any
//     body parsing.
//  2. Decode the (possibly base64-encoded) JSON body.
//  3. Run the pipeline: validate, relay to the prediction service,
//     overwrite the latest document.
//  4. Map the result or AppError to the device-facing wire contract.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"vitalink/internal/config"
	"vitalink/internal/external"
	"vitalink/internal/readings"
	"vitalink/internal/store"
	"vitalink/internal/telemetry"
	"vitalink/internal/types"
)

// successBody is the device-facing success envelope.
type successBody struct {
	Success    bool   `json:"success"`
	Prediction string `json:"prediction"`
}

// errorBody is the device-facing error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// ingestService is the pipeline contract the handler depends on; narrowed to
// an interface so tests can substitute a mock.
type ingestService interface {
	Ingest(ctx context.Context, req readings.IngestRequest) (*readings.IngestResult, error)
}

// Handler holds the dependencies for the ingest Lambda handler.
type Handler struct {
	service ingestService
	logger  *slog.Logger
}

// Handle processes one API Gateway HTTP API event through the pipeline.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if method := req.RequestContext.HTTP.Method; method != http.MethodPost {
		h.logger.WarnContext(ctx, "rejected non-POST request", "method", method)
		resp := jsonResponse(http.StatusMethodNotAllowed, errorBody{Error: "method not allowed; use POST"})
		resp.Headers["Allow"] = http.MethodPost
		return resp, nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return jsonResponse(http.StatusBadRequest, errorBody{Error: "malformed request body encoding"}), nil
		}
		body = decoded
	}

	var ingestReq readings.IngestRequest
	if err := json.Unmarshal(body, &ingestReq); err != nil {
		return jsonResponse(http.StatusBadRequest, errorBody{Error: "malformed JSON in request body"}), nil
	}

	result, err := h.service.Ingest(ctx, ingestReq)
	if err != nil {
		return h.errorResponse(ctx, err), nil
	}

	return jsonResponse(http.StatusOK, successBody{
		Success:    true,
		Prediction: result.Prediction,
	}), nil
}

// errorResponse maps a pipeline error to the device-facing contract. The
// wrapped upstream detail is logged here and never leaves the function.
func (h *Handler) errorResponse(ctx context.Context, err error) events.APIGatewayV2HTTPResponse {
	h.logger.ErrorContext(ctx, "reading ingestion failed", "error", err)

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return jsonResponse(appErr.HTTPStatus(), errorBody{Error: appErr.Message})
	}

	return jsonResponse(http.StatusInternalServerError, errorBody{Error: "an unexpected error occurred"})
}

// jsonResponse builds an API Gateway response with a JSON body. Marshalling
// the fixed envelope types cannot fail in practice; a failure degrades to an
// empty 500.
func jsonResponse(status int, body any) events.APIGatewayV2HTTPResponse {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("ingest function cold start",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
	)

	var pipelineMetrics readings.Metrics = readings.NoopMetrics{}
	if cfg.Observability.EnableMetrics {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.Observability.AWSRegion),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: loading AWS configuration: %v\n", err)
			os.Exit(1)
		}
		pipelineMetrics = telemetry.NewCloudWatchCollector(
			cloudwatch.NewFromConfig(awsCfg),
			cfg.Observability.MetricNamespace,
			logger,
		)
	}

	predictor := external.NewPredictorClient(
		&http.Client{Timeout: cfg.Predictor.Timeout},
		external.PredictorClientConfig{URL: cfg.Predictor.URL, Logger: logger},
	)
	docStore := store.NewFirestoreClient(
		&http.Client{Timeout: cfg.Store.Timeout},
		cfg.Store,
		logger,
	)

	h := &Handler{
		service: readings.NewService(predictor, docStore, logger,
			readings.WithMetrics(pipelineMetrics),
		),
		logger: logger,
	}

	lambda.Start(h.Handle)
}
