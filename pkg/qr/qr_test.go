package qr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

const testURI = "otpauth://totp/Example:alice?secret=JBSWY3DPEHPK3PXP&issuer=Example"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := Encode(testURI, DefaultSize)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "qr.png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	texts, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(texts) != 1 {
		t.Fatalf("expected 1 decoded text, got %d", len(texts))
	}
	if texts[0] != testURI {
		t.Errorf("expected %q, got %q", testURI, texts[0])
	}
}

func TestEncodeDefaultSize(t *testing.T) {
	data, err := Encode(testURI, 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Encode produced invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != DefaultSize {
		t.Errorf("expected %dpx image, got %dpx", DefaultSize, img.Bounds().Dx())
	}
}

func TestDecodeMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.png")
	if _, err := Decode(path); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound, got %v", err)
	}
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.webp")
	if err := os.WriteFile(path, []byte("whatever"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := Decode(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecodeCorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := Decode(path); err == nil {
		t.Error("expected error for corrupt image")
	}
}

func TestDecodeImageWithoutQR(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.White)
		}
	}

	path := filepath.Join(t.TempDir(), "blank.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("failed to encode png: %v", err)
	}
	f.Close()

	texts, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode of blank image errored: %v", err)
	}
	if len(texts) != 0 {
		t.Errorf("expected no decoded texts, got %v", texts)
	}
}
