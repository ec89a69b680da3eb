// Package inference - Inference engines that turn an image into a raw detection tensor.
package inference

import (
	"context"
	"image"

	"gorgonia.org/tensor"
)

// Engine runs a detection model over a single image.
//
// The returned tensor holds the model's raw output, before any confidence filtering or
// suppression. Use DecodeOutput to view it as rows.
type Engine interface {
	Infer(ctx context.Context, img image.Image) (tensor.Tensor, error)
	Close() error
}

// EngineFunc adapts a function to the Engine interface. Close is a no-op.
type EngineFunc func(ctx context.Context, img image.Image) (tensor.Tensor, error)

// Infer calls f.
func (f EngineFunc) Infer(ctx context.Context, img image.Image) (tensor.Tensor, error) {
	return f(ctx, img)
}

// Close does nothing.
func (f EngineFunc) Close() error { return nil }
