package postprocess

import "github.com/pkg/errors"

// Layout is the row layout of a raw detection tensor.
type Layout int

const (
	// LayoutSingleClass rows are [cx, cy, w, h, score].
	LayoutSingleClass Layout = iota + 1
	// LayoutMultiClass rows are [cx, cy, w, h, score_0 ... score_K-1].
	LayoutMultiClass
)

// boxFields is the number of leading box parameters in every row.
const boxFields = 4

func (l Layout) String() string {
	switch l {
	case LayoutSingleClass:
		return "single-class"
	case LayoutMultiClass:
		return "multi-class"
	default:
		return "unknown"
	}
}

// ResolveLayout picks the tensor layout from the row width once per invocation.
//
// A 5-column tensor is single-class regardless of the catalog. Otherwise the width must
// be exactly 4 + catalogSize.
//
// Arguments:
//   - cols: The tensor row width.
//   - catalogSize: The number of classes in the catalog.
//
// Returns:
//   - Layout: The resolved layout.
//   - error: An *InputShapeError if the width fits neither layout.
func ResolveLayout(cols, catalogSize int) (Layout, error) {
	switch {
	case cols == boxFields+1:
		return LayoutSingleClass, nil
	case catalogSize > 1 && cols == boxFields+catalogSize:
		return LayoutMultiClass, nil
	default:
		return 0, errors.WithStack(&InputShapeError{Cols: cols, CatalogSize: catalogSize, Row: -1})
	}
}
