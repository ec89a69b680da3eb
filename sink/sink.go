// Package sink - Renders detection results for consumers: plain text lines, JSON
// documents and annotated images.
package sink

import (
	"fmt"
	"strings"

	"github.com/nvr-ai/go-subject/detector"
	"github.com/nvr-ai/go-subject/models/postprocess"
)

// Report is everything a sink needs to render one processed image.
type Report struct {
	// Image is the path or name of the source image.
	Image string
	// Summary is the aggregate result for the image.
	Summary postprocess.Summary
	// ClassFilter names the classes that were searched for.
	ClassFilter []string
	// Diagnostics are per-candidate outcomes, only set in debug mode.
	Diagnostics []detector.Diagnostic
}

// NewReport builds a report from a detector result.
func NewReport(image string, result *detector.Result, classFilter []string) Report {
	return Report{
		Image:       image,
		Summary:     result.Summary,
		ClassFilter: classFilter,
		Diagnostics: result.Diagnostics,
	}
}

// Sink consumes reports and errors.
type Sink interface {
	// Write renders a successful result, including the no-match outcome.
	Write(r Report) error
	// WriteError renders a failure for a single image.
	WriteError(image string, err error) error
}

// NoMatchMessage describes an empty result for the classes searched for.
func NoMatchMessage(classFilter []string) string {
	if len(classFilter) == 0 {
		return "No objects detected in the image."
	}
	return fmt.Sprintf("No %s detected in the image.", strings.Join(classFilter, " or "))
}

// Multi fans reports out to several sinks and returns the first error.
type Multi []Sink

// Write implements Sink.
func (m Multi) Write(r Report) error {
	for _, s := range m {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteError implements Sink.
func (m Multi) WriteError(image string, err error) error {
	for _, s := range m {
		if werr := s.WriteError(image, err); werr != nil {
			return werr
		}
	}
	return nil
}
