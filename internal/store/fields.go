// Package store implements the document-store side of the ingestion pipeline:
// a typed representation of the store's field-value wire format and an HTTP
// client that blind-overwrites the per-user "latest" document through the
// store's REST interface.
package store

import (
	"encoding/json"
	"time"

	"vitalink/internal/types"
)

// Value is one typed field value in the document store's wire representation.
// Each concrete type marshals to the store's native wrapper object
// ({"stringValue": ...}, {"doubleValue": ...}, and so on), keeping the field
// mapping explicit and unit-testable independent of transport.
type Value interface {
	json.Marshaler
	isValue()
}

// StringValue marshals as {"stringValue": "..."}.
type StringValue string

func (v StringValue) isValue() {}

func (v StringValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StringValue string `json:"stringValue"`
	}{StringValue: string(v)})
}

// DoubleValue marshals as {"doubleValue": n}.
type DoubleValue float64

func (v DoubleValue) isValue() {}

func (v DoubleValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		DoubleValue float64 `json:"doubleValue"`
	}{DoubleValue: float64(v)})
}

// TimestampValue marshals as {"timestampValue": "<RFC 3339 UTC>"}.
type TimestampValue time.Time

func (v TimestampValue) isValue() {}

func (v TimestampValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TimestampValue string `json:"timestampValue"`
	}{TimestampValue: time.Time(v).UTC().Format(time.RFC3339Nano)})
}

// MapValue marshals as {"mapValue": {"fields": {...}}}.
type MapValue FieldMap

func (v MapValue) isValue() {}

func (v MapValue) MarshalJSON() ([]byte, error) {
	type fieldsBody struct {
		Fields FieldMap `json:"fields"`
	}
	return json.Marshal(struct {
		MapValue fieldsBody `json:"mapValue"`
	}{MapValue: fieldsBody{Fields: FieldMap(v)}})
}

// FieldMap is a named set of typed field values, the body of one document
// write.
type FieldMap map[string]Value

// LatestFields builds the field map for the per-user "latest" document from a
// DisplayDocument. Pure: same document in, same map out; the caller assigns
// the write-time timestamp before calling.
//
// The probabilities entry is a nested map of class label to numeric score and
// is omitted entirely when the prediction carried no per-class scores.
func LatestFields(doc types.DisplayDocument) FieldMap {
	fields := FieldMap{
		"stress_level": StringValue(doc.StressLevel),
		"hr":           DoubleValue(doc.HeartRate),
		"timestamp":    TimestampValue(doc.Timestamp),
	}

	if len(doc.Probabilities) > 0 {
		probs := make(FieldMap, len(doc.Probabilities))
		for label, p := range doc.Probabilities {
			probs[label] = DoubleValue(p)
		}
		fields["probabilities"] = MapValue(probs)
	}

	return fields
}
