// Package config defines the global configuration structure for the VitaLink
// ingestion service. Configuration is loaded once at process initialization
// (Lambda cold start or local server boot) and is immutable thereafter. It
// follows 12-Factor App principles by strictly separating code from
// configuration: no component reads environment variables mid-request.
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup (fail fast).
package config

import (
	"time"

	"vitalink/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the VitaLink service.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"vitalink-ingest"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server        ServerConfig
	Predictor     PredictorConfig
	Store         StoreConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration for local mode.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// PredictorConfig holds the stress-prediction service endpoint configuration.
type PredictorConfig struct {
	// URL is the full endpoint the prediction request is POSTed to.
	URL     string        `envconfig:"PREDICTOR_URL" validate:"required,url"`
	Timeout time.Duration `envconfig:"PREDICTOR_TIMEOUT" default:"30s"`
}

// StoreConfig holds the document-store REST write configuration.
//
// Collection and LatestPath default to the majority deployment variant
// (user_display/{userId}/readings/latest); deployments that persist directly
// under user_display/{userId}/latest override LatestPath.
type StoreConfig struct {
	ProjectID  string        `envconfig:"FIRESTORE_PROJECT_ID" validate:"required"`
	APIKey     SecretString  `envconfig:"FIRESTORE_API_KEY" validate:"required"`
	DatabaseID string        `envconfig:"FIRESTORE_DATABASE_ID" default:"(default)"`
	Collection string        `envconfig:"DISPLAY_COLLECTION" default:"user_display"`
	LatestPath string        `envconfig:"LATEST_DOC_PATH" default:"readings/latest"`
	Timeout    time.Duration `envconfig:"FIRESTORE_TIMEOUT" default:"10s"`

	// BaseURL override for testing; empty means the public Firestore API.
	BaseURL string `envconfig:"FIRESTORE_BASE_URL"`
}

// ObservabilityConfig holds telemetry and monitoring settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"VitaLink"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
	AWSRegion       string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
