package external

import (
	"context"

	"vitalink/internal/types"
)

// PredictorClient is the contract for the stress-prediction relay. The
// readings service depends on this interface rather than the HTTP
// implementation so tests can substitute a mock.
type PredictorClient interface {
	// Classify relays one sensor reading and returns the interpreted
	// prediction. Implementations must be stateless and idempotent per call.
	Classify(ctx context.Context, reading types.SensorReading) (*types.PredictionResult, error)
}
