package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	writePNG(t, path, 80, 48)

	img, frame, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, Frame{Width: 80, Height: 48}, frame)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.jpg")
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image decoding failed")
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 4, 4)
	writePNG(t, filepath.Join(dir, "a.PNG"), 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	paths, err := ListDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.png"),
	}, paths)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("x.JPG"))
	assert.True(t, IsSupported("/a/b/c.jpeg"))
	assert.False(t, IsSupported("x.onnx"))
	assert.False(t, IsSupported("noext"))
}
