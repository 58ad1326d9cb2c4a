// Package types defines the shared domain model, error taxonomy, and
// context utilities for the VitaLink ingestion service. It has no
// dependencies on other internal packages so that every layer can import it.
package types

import "time"

// SensorReading is one validated inbound sample from an embedded device.
// HeartRate and UserID are mandatory; the remaining vitals are optional and
// carried as pointers so that "not measured" is distinguishable from zero.
type SensorReading struct {
	UserID               string
	HeartRate            float64
	HeartRateVariability *float64
	BodyTemperature      *float64
	OxygenSaturation     *float64
}

// PredictionResult is the interpreted response from the stress-prediction
// service. Probabilities is nil when the upstream omits per-class scores,
// which is a valid response shape.
type PredictionResult struct {
	StressLevel   string
	Probabilities map[string]float64
}

// DisplayDocument is the per-user "latest" record persisted to the document
// store. It is fully transient: built per request, blind-overwritten on every
// successful prediction, never read back by this service.
type DisplayDocument struct {
	StressLevel   string
	HeartRate     float64
	Timestamp     time.Time
	Probabilities map[string]float64
}
