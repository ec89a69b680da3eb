package images

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats.
type ImageFormat string

// ImageFormat constants.
const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
	FormatGIF  ImageFormat = "gif"
	FormatTIFF ImageFormat = "tiff"
)

var extensionFormats = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".bmp":  FormatBMP,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// FormatFromPath returns the image format implied by the extension of path.
//
// Arguments:
//   - path: A file path or name.
//
// Returns:
//   - ImageFormat: The format, matched case-insensitively.
//   - error: An error if the extension is not a supported image format.
func FormatFromPath(path string) (ImageFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return "", errors.Errorf("unsupported image format %q for %s", ext, path)
}
