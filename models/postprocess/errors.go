package postprocess

import "fmt"

// InputShapeError reports a raw tensor whose column count matches neither the
// single-class layout (5 columns) nor the multi-class layout (4 + catalog size), or
// whose rows are not all the same width.
type InputShapeError struct {
	// Cols is the observed row width.
	Cols int
	// CatalogSize is the number of classes the tensor was checked against.
	CatalogSize int
	// Row is the offending row for ragged input, -1 otherwise.
	Row int
	// Want is the row width established by the first row of ragged input.
	Want int
}

func (e *InputShapeError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("input shape: row %d has %d columns, expected %d", e.Row, e.Cols, e.Want)
	}
	return fmt.Sprintf("input shape: %d columns, expected 5 or %d (4 + %d classes)",
		e.Cols, 4+e.CatalogSize, e.CatalogSize)
}
