package postprocess

import "github.com/nvr-ai/go-subject/images"

// Filter selects the rows of raw whose confidence is strictly greater than threshold.
//
// For multi-class rows the class is the argmax of the scores, ties resolving to the
// lowest index, and the confidence is the maximum score. Single-class rows use the
// fifth field as confidence and class 0. The output preserves row order; an empty
// tensor yields an empty (nil) set.
//
// Arguments:
//   - raw: The raw detection tensor.
//   - layout: The layout resolved by ResolveLayout for raw.
//   - threshold: The confidence threshold, compared with >.
//
// Returns:
//   - []Detection: The candidates in tensor row order.
func Filter(raw RawTensor, layout Layout, threshold float32) []Detection {
	var detections []Detection

	for row := 0; row < raw.Rows(); row++ {
		classID, confidence := 0, raw.At(row, boxFields)

		if layout == LayoutMultiClass {
			for col := boxFields + 1; col < raw.Cols(); col++ {
				if score := raw.At(row, col); score > confidence {
					confidence = score
					classID = col - boxFields
				}
			}
		}

		// NaN scores fail this comparison and are dropped.
		if !(confidence > threshold) {
			continue
		}

		detections = append(detections, Detection{
			Box: images.BoxFromCenter(
				raw.At(row, 0),
				raw.At(row, 1),
				raw.At(row, 2),
				raw.At(row, 3),
			),
			ClassID:    classID,
			Confidence: confidence,
			Row:        row,
		})
	}

	return detections
}
