// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"sort"

	"github.com/nvr-ai/go-subject/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold suppresses candidates whose overlap with a kept box is >= this value.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// ClassAware restricts suppression to pairs of the same class.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`
}

// Suppress performs greedy Non-Maximum Suppression over detections.
//
// Candidates are ordered ascending by confidence with a stable sort, so equal
// confidences keep their input order. Each round pops the highest remaining candidate,
// keeps it, and discards every remaining candidate whose IoU with it is at least the
// threshold. The alive set is compacted in place, so rounds do not allocate.
//
// The input slice is not modified.
//
// Arguments:
//   - detections: Candidates in corner form.
//   - config: NMS configuration.
//
// Returns:
//   - []int: Indices into detections of the kept candidates, in popped order
//     (descending confidence).
func Suppress(detections []Detection, config NMSConfig) []int {
	n := len(detections)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return detections[order[a]].Confidence < detections[order[b]].Confidence
	})

	kept := make([]int, 0, n)
	for len(order) > 0 {
		last := len(order) - 1
		anchor := order[last]
		order = order[:last]
		kept = append(kept, anchor)

		anchorBox := detections[anchor].Box
		alive := order[:0]
		for _, idx := range order {
			if config.ClassAware && detections[idx].ClassID != detections[anchor].ClassID {
				alive = append(alive, idx)
				continue
			}
			if images.CalculateIoU(anchorBox, detections[idx].Box) < config.IoUThreshold {
				alive = append(alive, idx)
			}
		}
		order = alive
	}

	return kept
}

// ApplyNMS filters overlapping detections and returns the kept ones in popped order.
//
// Arguments:
//   - detections: Candidates in corner form.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of detections. If no detections are provided, returns nil.
func ApplyNMS(detections []Detection, config NMSConfig) []Detection {
	kept := Suppress(detections, config)
	if kept == nil {
		return nil
	}

	filtered := make([]Detection, len(kept))
	for i, idx := range kept {
		filtered[i] = detections[idx]
	}
	return filtered
}
