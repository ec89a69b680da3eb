package inference

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-subject/models/postprocess"
)

// TensorLayout describes how the model arranges its output.
type TensorLayout string

const (
	// ChannelsFirst is [1, 4+K, N]: one plane per field, as exported by Ultralytics.
	ChannelsFirst TensorLayout = "channels_first"
	// ChannelsLast is [1, N, 4+K] or [N, 4+K]: one row per candidate.
	ChannelsLast TensorLayout = "channels_last"
)

// Valid reports whether l is a known layout.
func (l TensorLayout) Valid() bool {
	return l == ChannelsFirst || l == ChannelsLast
}

// DecodeOutput views an engine output tensor as detection rows without copying.
//
// A leading batch dimension must be 1 and is dropped. Non-contiguous views are
// materialized first.
//
// Arguments:
//   - t: The engine output, float32.
//   - layout: How fields and candidates are arranged.
//
// Returns:
//   - postprocess.RawTensor: One row per candidate.
//   - error: An error if the dtype, rank or batch size is unsupported.
func DecodeOutput(t tensor.Tensor, layout TensorLayout) (postprocess.RawTensor, error) {
	if t == nil {
		return postprocess.RawTensor{}, errors.New("nil output tensor")
	}
	if t.Dtype() != tensor.Float32 {
		return postprocess.RawTensor{}, errors.Errorf("unsupported output dtype %v, want float32", t.Dtype())
	}
	if t.RequiresIterator() {
		t = tensor.Materialize(t)
	}

	shape := t.Shape().Clone()
	if len(shape) == 3 {
		if shape[0] != 1 {
			return postprocess.RawTensor{}, errors.Errorf("unsupported batch size %d in output shape %v", shape[0], shape)
		}
		shape = shape[1:]
	}
	if len(shape) != 2 {
		return postprocess.RawTensor{}, errors.Errorf("unsupported output rank %d (shape %v)", len(t.Shape()), t.Shape())
	}

	data, ok := t.Data().([]float32)
	if !ok {
		return postprocess.RawTensor{}, errors.Errorf("output tensor backing is %T, want []float32", t.Data())
	}

	switch layout {
	case ChannelsFirst:
		return postprocess.NewChannelMajorTensor(data, shape[0], shape[1])
	case ChannelsLast:
		return postprocess.NewRawTensor(data, shape[0], shape[1])
	default:
		return postprocess.RawTensor{}, errors.Errorf("unknown tensor layout %q", layout)
	}
}
