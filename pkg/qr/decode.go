// Package qr reads enrollment QR codes from image files and renders stored
// secrets back into scannable PNG images.
package qr

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Errors
var (
	// ErrImageNotFound is returned when the image file does not exist.
	ErrImageNotFound = errors.New("qr: image file not found")

	// ErrUnsupportedFormat is returned for image file extensions that are
	// not recognized.
	ErrUnsupportedFormat = errors.New("qr: unsupported image format")
)

var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Decode reads the image at path and returns the text payload of every QR
// code found in it, in detection order. An image that contains no QR code
// at all yields an empty slice, not an error.
func Decode(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("qr: failed to stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("qr: failed to open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("qr: failed to decode image %s: %w", path, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("qr: failed to prepare image %s: %w", path, err)
	}

	reader := multiqr.NewQRCodeMultiReader()
	results, err := reader.DecodeMultiple(bmp, nil)
	if err != nil {
		// No QR code in the image is a valid outcome.
		if _, ok := err.(gozxing.NotFoundException); ok {
			return []string{}, nil
		}
		return nil, fmt.Errorf("qr: failed to scan %s: %w", path, err)
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		if text := r.GetText(); text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}
