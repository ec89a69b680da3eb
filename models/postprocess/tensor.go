package postprocess

import "github.com/pkg/errors"

// RawTensor is a read-only view over a detection tensor of shape [rows][cols] where
// each row is [cx, cy, w, h, score...] in model-input space.
//
// Detection heads export either row-major data ([N][4+K]) or channel-major data
// ([4+K][N], e.g. YOLO's [1, 84, 8400]). The view hides the difference so the filter
// always walks rows.
type RawTensor struct {
	data         []float32
	rows, cols   int
	channelMajor bool
}

// NewRawTensor wraps row-major data of shape [rows][cols].
//
// Arguments:
//   - data: Backing data, len(data) must equal rows*cols.
//   - rows: Number of candidate rows.
//   - cols: Number of fields per row.
//
// Returns:
//   - RawTensor: The tensor view.
//   - error: An error if the backing data does not match the shape.
func NewRawTensor(data []float32, rows, cols int) (RawTensor, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return RawTensor{}, errors.Errorf("tensor data holds %d floats, shape [%d][%d] needs %d",
			len(data), rows, cols, rows*cols)
	}
	return RawTensor{data: data, rows: rows, cols: cols}, nil
}

// NewChannelMajorTensor wraps channel-major data of shape [channels][anchors], where
// every anchor is one candidate row of width channels.
func NewChannelMajorTensor(data []float32, channels, anchors int) (RawTensor, error) {
	if channels < 0 || anchors < 0 || len(data) != channels*anchors {
		return RawTensor{}, errors.Errorf("tensor data holds %d floats, shape [%d][%d] needs %d",
			len(data), channels, anchors, channels*anchors)
	}
	return RawTensor{data: data, rows: anchors, cols: channels, channelMajor: true}, nil
}

// FromRows copies a slice of rows into a row-major tensor. All rows must have the same
// width; a ragged row yields an *InputShapeError.
func FromRows(rows [][]float32) (RawTensor, error) {
	if len(rows) == 0 {
		return RawTensor{}, nil
	}

	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return RawTensor{}, errors.WithStack(&InputShapeError{Cols: len(row), Row: i, Want: cols})
		}
		data = append(data, row...)
	}
	return RawTensor{data: data, rows: len(rows), cols: cols}, nil
}

// Rows returns the number of candidate rows.
func (t RawTensor) Rows() int { return t.rows }

// Cols returns the number of fields per row.
func (t RawTensor) Cols() int { return t.cols }

// At returns field col of row.
func (t RawTensor) At(row, col int) float32 {
	if t.channelMajor {
		return t.data[col*t.rows+row]
	}
	return t.data[row*t.cols+col]
}
