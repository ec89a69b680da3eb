package sink

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-subject/images"
	"github.com/nvr-ai/go-subject/models/postprocess"
)

func grayImage(w, h int) *image.NRGBA {
	return imaging.New(w, h, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

// @example
// go test -v -run TestAnnotate
func TestAnnotate(t *testing.T) {
	src := grayImage(200, 100)
	r := Report{
		Summary: postprocess.Summarize(images.FrameOf(src), []postprocess.FinalDetection{
			{Box: images.Rect{X1: 20, Y1: 30, X2: 80, Y2: 90}, Confidence: 0.9, ClassName: "person"},
			{Box: images.Rect{X1: 120, Y1: 10, X2: 180, Y2: 60}, Confidence: 0.7, ClassName: "person"},
		}),
	}

	out, err := Annotate(src, r)
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), out.Bounds())

	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}

	// The union outline is drawn on top of the detection outlines.
	assert.Equal(t, unionColor, rgbaAt(out, 20, 50))
	assert.Equal(t, unionColor, rgbaAt(out, 100, 10))
	// Detection outline away from the union border.
	assert.Equal(t, detectionColor, rgbaAt(out, 79, 60))
	// Center cross at (100, 50).
	assert.Equal(t, unionColor, rgbaAt(out, 100, 50))
	assert.Equal(t, unionColor, rgbaAt(out, 100+crossSize, 50))
	// Interior pixels are untouched.
	assert.Equal(t, gray, rgbaAt(out, 60, 70))
	// The source is not modified.
	assert.Equal(t, gray, rgbaAt(src, 20, 50))
}

func TestAnnotateNoMatch(t *testing.T) {
	src := grayImage(40, 40)
	r := Report{Summary: postprocess.Summarize(images.FrameOf(src), nil)}
	out, err := Annotate(src, r)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, imaging.Clone(out).Pix)
}

func TestImageSink(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "frame.png")
	require.NoError(t, imaging.Save(grayImage(64, 48), srcPath))

	r := Report{
		Image: srcPath,
		Summary: postprocess.Summarize(images.Frame{Width: 64, Height: 48}, []postprocess.FinalDetection{
			{Box: images.Rect{X1: 8, Y1: 8, X2: 40, Y2: 40}, Confidence: 0.8, ClassName: "person"},
		}),
	}

	t.Run("directory target", func(t *testing.T) {
		outDir := filepath.Join(dir, "out")
		require.NoError(t, os.Mkdir(outDir, 0o755))
		s := NewImageSink(outDir)

		expected := filepath.Join(outDir, "frame.annotated.png")
		assert.Equal(t, expected, s.OutputPath(srcPath))
		require.NoError(t, s.Write(r))

		img, frame, err := images.Load(expected)
		require.NoError(t, err)
		assert.Equal(t, images.Frame{Width: 64, Height: 48}, frame)
		assert.NotNil(t, img)
	})

	t.Run("file target", func(t *testing.T) {
		target := filepath.Join(dir, "result.jpg")
		require.NoError(t, NewImageSink(target).Write(r))
		_, err := os.Stat(target)
		assert.NoError(t, err)
	})

	t.Run("missing source", func(t *testing.T) {
		missing := r
		missing.Image = filepath.Join(dir, "nope.png")
		err := NewImageSink(filepath.Join(dir, "x.png")).Write(missing)
		assert.ErrorContains(t, err, "failed to load")
	})

	assert.NoError(t, NewImageSink(dir).WriteError("a", assert.AnError))
}

func TestImageSinkUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "frame.png")
	require.NoError(t, imaging.Save(grayImage(8, 8), srcPath))

	r := Report{Image: srcPath, Summary: postprocess.Summarize(images.Frame{Width: 8, Height: 8}, nil)}

	tests := []struct {
		name     string
		target   string
		expected string
	}{
		{name: "webp", target: "out.webp", expected: "unsupported image format"},
		{name: "gif", target: "out.gif", expected: "gif encoding is not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := filepath.Join(dir, tt.target)
			err := NewImageSink(target).Write(r)
			assert.ErrorContains(t, err, tt.expected)
			assert.NoFileExists(t, target)
		})
	}
}

// @example
// go test -v -run TestCheckTarget
func TestCheckTarget(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "out.png")

	tests := []struct {
		name    string
		target  string
		inputs  int
		wantErr bool
	}{
		{name: "file for one image", target: file, inputs: 1},
		{name: "directory for many images", target: dir, inputs: 3},
		{name: "file for many images", target: file, inputs: 2, wantErr: true},
		{name: "missing directory for many images", target: filepath.Join(dir, "missing"), inputs: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTarget(tt.target, tt.inputs)
			if tt.wantErr {
				assert.ErrorContains(t, err, "must be a directory")
				return
			}
			assert.NoError(t, err)
		})
	}
}
