// Package images - Geometry and image source utilities.
package images

import (
	"image"

	"github.com/chewxy/math32"
)

// Box is a floating-point bounding box in corner form.
//
// Boxes live in model-input space (for example 640x640) until they are rescaled into a
// Rect in the original image's pixel space.
type Box struct {
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"`
	Y2 float32 `json:"y2"`
}

// BoxFromCenter converts a center/size box into corner form.
//
// Negative sizes are clamped to zero so that X2 >= X1 and Y2 >= Y1 always hold.
//
// Arguments:
//   - cx, cy: The box center.
//   - w, h: The box width and height.
//
// Returns:
//   - Box: The corner-form box.
func BoxFromCenter(cx, cy, w, h float32) Box {
	w = math32.Max(w, 0)
	h = math32.Max(h, 0)
	return Box{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float32 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Box) Height() float32 { return b.Y2 - b.Y1 }

// Area returns the box area. Degenerate boxes have an area of zero.
func (b Box) Area() float32 {
	return math32.Max(b.Width(), 0) * math32.Max(b.Height(), 0)
}

// CalculateIoU measures the overlap of two boxes as intersection over union.
//
// The intersection is the box spanned by the larger of the two top-left corners and the
// smaller of the two bottom-right corners; a negative extent on either axis means the
// boxes do not overlap. The union follows inclusion-exclusion:
//
//	Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
//
// A union of zero (two degenerate boxes) yields 0 instead of NaN. The function is
// symmetric: CalculateIoU(a, b) == CalculateIoU(b, a).
//
// Arguments:
//   - a: The first box.
//   - b: The second box.
//
// Returns:
//   - float32: A value in [0, 1].
//
// Example Usage:
//
//	a := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	b := Box{X1: 5, Y1: 5, X2: 15, Y2: 15}
//	iou := CalculateIoU(a, b) // 25 / 175 = 0.142857
func CalculateIoU(a, b Box) float32 {
	interW := math32.Max(0, math32.Min(a.X2, b.X2)-math32.Max(a.X1, b.X1))
	interH := math32.Max(0, math32.Min(a.Y2, b.Y2)-math32.Max(a.Y1, b.Y1))
	inter := interW * interH

	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Rect is an integer bounding box in original image pixel space.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Union returns the smallest rect enclosing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
		X2: max(r.X2, o.X2),
		Y2: max(r.Y2, o.Y2),
	}
}

// Contains reports whether o lies entirely inside r, edges included.
func (r Rect) Contains(o Rect) bool {
	return o.X1 >= r.X1 && o.Y1 >= r.Y1 && o.X2 <= r.X2 && o.Y2 <= r.Y2
}

// Center returns the midpoint of the rect using floor division, so negative
// coordinates round toward negative infinity rather than toward zero.
func (r Rect) Center() image.Point {
	return image.Point{
		X: FloorDiv(r.X1+r.X2, 2),
		Y: FloorDiv(r.Y1+r.Y2, 2),
	}
}

// Array returns the rect as [x1, y1, x2, y2].
func (r Rect) Array() [4]int {
	return [4]int{r.X1, r.Y1, r.X2, r.Y2}
}

// ToRectangle converts the rect to a canonical image.Rectangle for drawing.
func (r Rect) ToRectangle() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2).Canon()
}

// FloorDiv divides a by b rounding toward negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}
