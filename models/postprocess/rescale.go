package postprocess

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-subject/images"
)

// DefaultModelInputSize is the side length of the square model input.
const DefaultModelInputSize = 640

// Scale maps model-input coordinates to original image coordinates.
//
// The model input is a plain (non letterboxed) resize, so the two axes scale
// independently.
type Scale struct {
	X, Y float32
}

// NewScale computes the scale factors from a square model input of side modelSize to
// frame.
func NewScale(frame images.Frame, modelSize int) Scale {
	m := float32(modelSize)
	return Scale{
		X: float32(frame.Width) / m,
		Y: float32(frame.Height) / m,
	}
}

// Apply scales box into pixel space. Coordinates are truncated toward zero, never
// rounded, so identical inputs always give identical rects.
func (s Scale) Apply(box images.Box) images.Rect {
	return images.Rect{
		X1: int(math32.Trunc(box.X1 * s.X)),
		Y1: int(math32.Trunc(box.Y1 * s.Y)),
		X2: int(math32.Trunc(box.X2 * s.X)),
		Y2: int(math32.Trunc(box.Y2 * s.Y)),
	}
}

// Rescale maps every detection box into pixel space, preserving order.
func Rescale(detections []Detection, s Scale) []images.Rect {
	rects := make([]images.Rect, len(detections))
	for i, d := range detections {
		rects[i] = s.Apply(d.Box)
	}
	return rects
}
