package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// PrepareInput fills dst with img resized to a size x size square, as three planar
// channels (red, green, blue) normalized to [0, 1].
//
// The resize is a plain stretch with no letterboxing, which is what the coordinate
// rescaler assumes when mapping boxes back to the original image.
//
// Arguments:
//   - img: The image to prepare.
//   - dst: The destination tensor data, at least 3*size*size floats.
//   - size: The side length of the model input.
//
// Returns:
//   - error: An error if dst is too small.
func PrepareInput(img image.Image, dst []float32, size int) error {
	channelSize := size * size
	if size <= 0 || len(dst) < channelSize*3 {
		return errors.Errorf("destination tensor only holds %d floats, needs %d "+
			"(make sure it's the right shape!)", len(dst), channelSize*3)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
	bounds := resized.Bounds()

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
