package qr

import (
	"fmt"

	qrcodegen "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of generated QR images.
const DefaultSize = 256

// Encode renders content as a QR code PNG with medium error correction.
// A size of 0 or less falls back to DefaultSize.
func Encode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcodegen.Encode(content, qrcodegen.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr: failed to encode: %w", err)
	}
	return png, nil
}
