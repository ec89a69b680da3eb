package postprocess

import (
	"image"
	"math"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-subject/images"
)

// Catalog maps class indices to names.
type Catalog interface {
	Name(idx int) (string, bool)
}

// ClassFilter is the set of class names allowed into the final result. A nil or empty
// filter allows every class in the catalog.
type ClassFilter map[string]struct{}

// NewClassFilter builds a filter from names.
func NewClassFilter(names ...string) ClassFilter {
	if len(names) == 0 {
		return nil
	}
	f := make(ClassFilter, len(names))
	for _, name := range names {
		f[name] = struct{}{}
	}
	return f
}

// Allows reports whether name passes the filter.
func (f ClassFilter) Allows(name string) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[name]
	return ok
}

// DropReason explains why Classify excluded a detection.
type DropReason int

const (
	// DropCatalogMismatch marks a class index outside the catalog.
	DropCatalogMismatch DropReason = iota + 1
	// DropClassFiltered marks a class not present in the class filter.
	DropClassFiltered
)

func (r DropReason) String() string {
	switch r {
	case DropCatalogMismatch:
		return "catalog_mismatch"
	case DropClassFiltered:
		return "class_filtered"
	default:
		return "unknown"
	}
}

// RoundConfidence rounds a confidence score to two decimals, exact halves to even.
func RoundConfidence(c float32) float32 {
	return float32(math.RoundToEven(float64(c)*100) / 100)
}

// Classify resolves class names for the kept detections and applies the class filter.
//
// Detections whose class index falls outside the catalog, or whose class is not in the
// filter, are dropped silently; onDrop, when non-nil, is told about each one.
//
// Arguments:
//   - detections: Kept detections in suppression order.
//   - rects: The pixel-space rect of each detection, same order.
//   - catalog: Class index to name mapping.
//   - filter: Allowed class names.
//   - onDrop: Optional callback for dropped detections.
//
// Returns:
//   - []FinalDetection: The surviving detections, order preserved.
func Classify(
	detections []Detection,
	rects []images.Rect,
	catalog Catalog,
	filter ClassFilter,
	onDrop func(d Detection, reason DropReason),
) []FinalDetection {
	final := make([]FinalDetection, 0, len(detections))

	for i, d := range detections {
		name, ok := catalog.Name(d.ClassID)
		if !ok {
			if onDrop != nil {
				onDrop(d, DropCatalogMismatch)
			}
			continue
		}
		if !filter.Allows(name) {
			if onDrop != nil {
				onDrop(d, DropClassFiltered)
			}
			continue
		}

		final = append(final, FinalDetection{
			Box:        rects[i],
			Confidence: RoundConfidence(d.Confidence),
			ClassName:  name,
			ClassID:    d.ClassID,
		})
	}

	return final
}

// Summarize computes the union box, its center, and the center's offset from the frame
// center over detections.
//
// When detections is empty the summary is the no-match sentinel: the box covers the
// whole frame, the center is the frame center and the offset is zero.
//
// Arguments:
//   - frame: The original image size.
//   - detections: The final, class-filtered detections.
//
// Returns:
//   - Summary: The aggregate result.
func Summarize(frame images.Frame, detections []FinalDetection) Summary {
	if len(detections) == 0 {
		return Summary{
			Frame:      frame,
			Box:        frame.Rect(),
			Center:     frame.Center(),
			Offset:     image.Point{},
			Detections: []FinalDetection{},
			NoMatch:    true,
		}
	}

	box := detections[0].Box
	maxConfidence := detections[0].Confidence
	for _, d := range detections[1:] {
		box = box.Union(d.Box)
		maxConfidence = math32.Max(maxConfidence, d.Confidence)
	}

	center := box.Center()
	return Summary{
		Frame:           frame,
		Box:             box,
		Center:          center,
		Offset:          center.Sub(frame.Center()),
		Detections:      detections,
		TotalDetections: len(detections),
		MaxConfidence:   maxConfidence,
	}
}
