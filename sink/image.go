package sink

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-subject/images"
)

var (
	detectionColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	unionColor     = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

const (
	labelFont      = gocv.FontHersheySimplex
	labelScale     = 0.5
	labelThickness = 1
	unionThickness = 3
	crossSize      = 6
)

// ImageSink draws the detections onto a copy of the source image and saves it.
type ImageSink struct {
	// Target is an output file, or a directory receiving "<name>.annotated<ext>" files.
	Target string
	// Load returns the source image for a report. Defaults to images.Load.
	Load func(path string) (image.Image, error)
}

// NewImageSink creates an annotating sink writing to target.
func NewImageSink(target string) *ImageSink {
	return &ImageSink{
		Target: target,
		Load: func(path string) (image.Image, error) {
			img, _, err := images.Load(path)
			return img, err
		},
	}
}

// CheckTarget rejects a single-file target when more than one image will be annotated,
// since every image would overwrite the same file.
func CheckTarget(target string, inputs int) error {
	if inputs <= 1 || isDir(target) {
		return nil
	}
	return errors.Errorf("annotation target %s must be a directory when annotating %d images", target, inputs)
}

// OutputPath returns where the annotated copy of src is written.
func (s *ImageSink) OutputPath(src string) string {
	if !isDir(s.Target) {
		return s.Target
	}
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return filepath.Join(s.Target, strings.TrimSuffix(base, ext)+".annotated"+ext)
}

// Write implements Sink. The output format follows the file extension.
func (s *ImageSink) Write(r Report) error {
	path := s.OutputPath(r.Image)
	format, err := images.FormatFromPath(path)
	if err != nil {
		return err
	}
	if format == images.FormatGIF {
		return errors.Errorf("cannot write annotated image %s: gif encoding is not supported", path)
	}

	src, err := s.Load(r.Image)
	if err != nil {
		return errors.Wrapf(err, "failed to load %s for annotation", r.Image)
	}

	mat, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return errors.Wrapf(err, "failed to convert %s for annotation", r.Image)
	}
	defer mat.Close()

	annotate(&mat, r)
	if !gocv.IMWrite(path, mat) {
		return errors.Errorf("failed to save annotated image %s", path)
	}
	return nil
}

// WriteError implements Sink. Failed images are not annotated.
func (s *ImageSink) WriteError(string, error) error { return nil }

// Annotate returns a copy of img with each detection outlined and labelled, the union
// box drawn thick, and a cross at the union center. No-match results are returned
// unmarked.
func Annotate(img image.Image, r Report) (image.Image, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert image")
	}
	defer mat.Close()

	annotate(&mat, r)
	return mat.ToImage()
}

func annotate(mat *gocv.Mat, r Report) {
	sum := r.Summary
	if sum.NoMatch {
		return
	}

	for _, d := range sum.Detections {
		rect := d.Box.ToRectangle()
		gocv.Rectangle(mat, rect, detectionColor, 1)
		putLabel(mat, rect.Min, fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence))
	}

	gocv.Rectangle(mat, sum.Box.ToRectangle(), unionColor, unionThickness)
	c := sum.Center
	gocv.Line(mat, image.Pt(c.X-crossSize, c.Y), image.Pt(c.X+crossSize, c.Y), unionColor, 1)
	gocv.Line(mat, image.Pt(c.X, c.Y-crossSize), image.Pt(c.X, c.Y+crossSize), unionColor, 1)
}

// putLabel writes text just above at, or just inside the box when there is no room
// above it.
func putLabel(mat *gocv.Mat, at image.Point, text string) {
	size := gocv.GetTextSize(text, labelFont, labelScale, labelThickness)
	origin := image.Pt(at.X, at.Y-4)
	if origin.Y-size.Y < 0 {
		origin.Y = at.Y + size.Y + 4
	}
	gocv.PutText(mat, text, origin, labelFont, labelScale, detectionColor, labelThickness)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
