// Package telemetry implements the metrics collectors behind the core and
// pipeline telemetry interfaces, emitting to AWS CloudWatch.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"vitalink/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchCollector emits ingestion telemetry to CloudWatch. It implements
// both core.MetricsCollector (request latency/count) and readings.Metrics
// (prediction outcome/latency, swallowed persistence failures).
//
// Emission is best-effort: a metric failure is logged and never propagated,
// so telemetry can never fail a device request.
type CloudWatchCollector struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchCollector creates a collector publishing to the given namespace.
func NewCloudWatchCollector(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCollector {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchCollector{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRequest records API request latency and count with Method, Endpoint,
// and Status dimensions.
func (c *CloudWatchCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		{Name: aws.String(types.DimMethod), Value: aws.String(method)},
		{Name: aws.String(types.DimEndpoint), Value: aws.String(endpoint)},
		{Name: aws.String(types.DimStatus), Value: aws.String(status)},
	}

	c.put(context.Background(), []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
		{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
	})
}

// RecordPrediction records the latency and outcome of one prediction relay call.
func (c *CloudWatchCollector) RecordPrediction(ctx context.Context, outcome string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		{Name: aws.String(types.DimOutcome), Value: aws.String(outcome)},
	}

	c.put(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricPredictionLatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
		{
			MetricName: aws.String(types.MetricPredictionOutcome),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
	})
}

// RecordPersistenceFailure counts one swallowed document-store write failure.
// This is the only signal the partial-failure policy leaves behind, so it
// must reach CloudWatch even though the request itself reports success.
func (c *CloudWatchCollector) RecordPersistenceFailure(ctx context.Context) {
	c.put(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricPersistenceFailure),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
		},
	})
}

// put publishes the metric data, logging (never returning) failures.
func (c *CloudWatchCollector) put(ctx context.Context, data []cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(c.namespace),
		MetricData: data,
	}
	if _, err := c.client.PutMetricData(ctx, input); err != nil {
		c.logger.Error("failed to put metric data", "error", err)
	}
}

// NoopCollector discards request metrics. Used when metrics are disabled
// (local development, tests).
type NoopCollector struct{}

// RecordRequest implements core.MetricsCollector as a no-op.
func (NoopCollector) RecordRequest(_, _, _ string, _ time.Duration) {}
