package images

import (
	"image"

	"github.com/pkg/errors"
)

// Frame describes the original image dimensions in pixel space.
type Frame struct {
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// FrameOf returns the frame of a decoded image.
func FrameOf(img image.Image) Frame {
	b := img.Bounds()
	return Frame{Width: b.Dx(), Height: b.Dy()}
}

// Validate checks that both dimensions are positive.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Errorf("invalid frame dimensions: width=%d, height=%d", f.Width, f.Height)
	}
	return nil
}

// Center returns the frame midpoint using integer division.
func (f Frame) Center() image.Point {
	return image.Point{X: f.Width / 2, Y: f.Height / 2}
}

// Rect returns a rect covering the entire frame.
func (f Frame) Rect() Rect {
	return Rect{X1: 0, Y1: 0, X2: f.Width, Y2: f.Height}
}
