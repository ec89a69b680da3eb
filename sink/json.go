package sink

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-subject/detector"
	"github.com/nvr-ai/go-subject/images"
)

// JSONDetection is one final detection in the JSON document.
type JSONDetection struct {
	Box        [4]int  `json:"box"`
	Confidence float32 `json:"confidence"`
	Class      string  `json:"class"`
	ClassID    int     `json:"class_id"`
}

// JSONReport is the document written by JSONSink.
type JSONReport struct {
	Image           string                `json:"image,omitempty"`
	ImageSize       images.Frame          `json:"imagesize"`
	TotalDetections int                   `json:"total_detections"`
	Box             [4]int                `json:"box"`
	Center          [2]int                `json:"center"`
	Offset          [2]int                `json:"offset"`
	Detections      []JSONDetection       `json:"detections"`
	NoMatch         bool                  `json:"no_match"`
	Message         string                `json:"message,omitempty"`
	Diagnostics     []detector.Diagnostic `json:"diagnostics,omitempty"`
}

// JSONError is the document written for a failed image.
type JSONError struct {
	Image string `json:"image,omitempty"`
	Error string `json:"error"`
}

// NewJSONReport converts a report into its JSON document.
func NewJSONReport(r Report) JSONReport {
	sum := r.Summary
	doc := JSONReport{
		Image:           r.Image,
		ImageSize:       sum.Frame,
		TotalDetections: sum.TotalDetections,
		Box:             sum.Box.Array(),
		Center:          [2]int{sum.Center.X, sum.Center.Y},
		Offset:          [2]int{sum.Offset.X, sum.Offset.Y},
		Detections:      make([]JSONDetection, len(sum.Detections)),
		NoMatch:         sum.NoMatch,
		Diagnostics:     r.Diagnostics,
	}
	for i, d := range sum.Detections {
		doc.Detections[i] = JSONDetection{
			Box:        d.Box.Array(),
			Confidence: d.Confidence,
			Class:      d.ClassName,
			ClassID:    d.ClassID,
		}
	}
	if sum.NoMatch {
		doc.Message = NoMatchMessage(r.ClassFilter)
	}
	return doc
}

// JSONSink writes one JSON document per report.
type JSONSink struct {
	enc *json.Encoder
}

// NewJSONSink creates a JSON sink writing to w. With indent set each document is
// pretty-printed with two spaces.
func NewJSONSink(w io.Writer, indent bool) *JSONSink {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return &JSONSink{enc: enc}
}

// Write implements Sink.
func (s *JSONSink) Write(r Report) error {
	return errors.Wrap(s.enc.Encode(NewJSONReport(r)), "failed to encode json result")
}

// WriteError implements Sink.
func (s *JSONSink) WriteError(image string, err error) error {
	return errors.Wrap(s.enc.Encode(JSONError{Image: image, Error: err.Error()}), "failed to encode json error")
}
