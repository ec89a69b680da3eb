// Package inference - This file provides the model precisions accepted by execution providers.
package inference

// Precision represents the precision of a model.
type Precision string

// Precision constants are the precisions accepted by the OpenVINO provider.
const (
	PrecisionFP16     Precision = "FP16"
	PrecisionFP32     Precision = "FP32"
	PrecisionAccuracy Precision = "ACCURACY"
)

// Valid reports whether p is a known precision. The empty precision is valid and leaves
// the provider default in place.
func (p Precision) Valid() bool {
	switch p {
	case "", PrecisionFP16, PrecisionFP32, PrecisionAccuracy:
		return true
	default:
		return false
	}
}
