package images

import (
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Decode reads an image from r, applying any EXIF orientation so that the returned
// pixels (and frame) match what a viewer would display.
//
// Arguments:
//   - r: The encoded image stream.
//
// Returns:
//   - image.Image: The decoded image.
//   - Frame: The decoded image dimensions.
//   - error: An error if decoding fails or the image is empty.
func Decode(r io.Reader) (image.Image, Frame, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, Frame{}, errors.Wrap(err, "image decoding failed")
	}
	frame := FrameOf(img)
	if err := frame.Validate(); err != nil {
		return nil, Frame{}, err
	}
	return img, frame, nil
}

// Load opens and decodes the image file at path.
//
// Arguments:
//   - path: The image file path.
//
// Returns:
//   - image.Image: The decoded, orientation-corrected image.
//   - Frame: The decoded image dimensions.
//   - error: An error if the file is missing or cannot be decoded.
func Load(path string) (image.Image, Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Frame{}, errors.Wrapf(err, "image file %s", path)
	}
	defer f.Close()

	img, frame, err := Decode(f)
	if err != nil {
		return nil, Frame{}, errors.Wrapf(err, "could not load image from %s", path)
	}
	return img, frame, nil
}

// IsSupported reports whether path has a decodable image extension.
func IsSupported(path string) bool {
	_, err := FormatFromPath(path)
	return err == nil
}

// ListDirectory returns the supported image files in dir, sorted by name.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []string: Full paths of the image files.
//   - error: Error if the directory cannot be read.
func ListDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}
