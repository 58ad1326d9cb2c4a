package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency         = "APILatency"
	MetricAPIRequestCount    = "APIRequestCount"
	MetricPredictionLatency  = "PredictionLatency"
	MetricPredictionOutcome  = "PredictionOutcome"
	MetricPersistenceFailure = "PersistenceFailure"

	// Dimension Keys
	DimMethod   = "Method"
	DimEndpoint = "Endpoint"
	DimStatus   = "Status"
	DimOutcome  = "Outcome"

	// Metric Namespace
	MetricNamespace = "VitaLink"
)

// Prediction outcome dimension values.
const (
	OutcomeSuccess     = "success"
	OutcomeCallFailed  = "call_failed"
	OutcomeBadResponse = "bad_response"
)
