// Package postprocess - Turns raw detection tensors into final boxes: confidence
// filtering, non-maximum suppression, rescaling and aggregate summarization.
package postprocess

import (
	"image"

	"github.com/nvr-ai/go-subject/images"
)

// Detection is a candidate that passed the confidence filter, in model-input space.
type Detection struct {
	// The bounding box of the candidate, corner form.
	Box images.Box
	// The predicted class index.
	ClassID int
	// The confidence score of the candidate.
	Confidence float32
	// The source tensor row.
	Row int
}

// FinalDetection is a surviving detection in original image pixel space.
type FinalDetection struct {
	Box        images.Rect
	Confidence float32
	ClassName  string
	ClassID    int
}

// Summary is the aggregate result of one pipeline invocation.
type Summary struct {
	// Frame is the original image size.
	Frame images.Frame
	// Box is the union of all detection boxes, or the whole frame when nothing matched.
	Box images.Rect
	// Center is the midpoint of Box.
	Center image.Point
	// Offset is Center relative to the frame center.
	Offset image.Point
	// Detections are the class-filtered final detections, in suppression order.
	Detections []FinalDetection
	// TotalDetections is len(Detections).
	TotalDetections int
	// MaxConfidence is the highest confidence among Detections.
	MaxConfidence float32
	// NoMatch is set when no detection survived. It is an outcome, not an error.
	NoMatch bool
}
