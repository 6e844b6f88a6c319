// Package imaging sniffs and resizes the image formats the gallery
// accepts for avatars and artwork: JPEG, PNG and GIF.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
)

// ErrUnsupportedType is returned for content outside the accepted set.
var ErrUnsupportedType = errors.New("unsupported image type")

var (
	magicHeaders = map[string][]string{
		MIMETypeJPEG: {"\xFF\xD8"},
		MIMETypePNG:  {"\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"},
		MIMETypeGIF:  {"GIF87a", "GIF89a"},
	}

	extensions = map[string]string{
		MIMETypeJPEG: ".jpg",
		MIMETypePNG:  ".png",
		MIMETypeGIF:  ".gif",
	}

	decoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypePNG:  png.Decode,
		MIMETypeGIF:  gif.Decode,
	}

	encoders = map[string]func(io.Writer, image.Image) error{
		MIMETypeJPEG: func(w io.Writer, i image.Image) error { return jpeg.Encode(w, i, nil) },
		MIMETypePNG:  png.Encode,
		MIMETypeGIF:  func(w io.Writer, i image.Image) error { return gif.Encode(w, i, nil) },
	}
)

// Sniff identifies the MIME type from the file's magic header. It
// returns the empty string for anything outside the accepted set.
func Sniff(data []byte) string {
	for mimeType, headers := range magicHeaders {
		for _, h := range headers {
			if len(data) >= len(h) && string(data[:len(h)]) == h {
				return mimeType
			}
		}
	}
	return ""
}

// Allowed reports whether the MIME type is one the gallery accepts.
func Allowed(mimeType string) bool {
	_, ok := magicHeaders[mimeType]
	return ok
}

// Extension returns the canonical file extension for a MIME type.
func Extension(mimeType string) string {
	return extensions[mimeType]
}

// Resize scales an image to the given width, preserving aspect ratio,
// and re-encodes it in its original format. Images at or below the
// target width are returned unchanged.
func Resize(data []byte, mimeType string, width int) ([]byte, error) {
	decoder, ok := decoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}

	original, err := decoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if original.Bounds().Dx() <= width {
		return data, nil
	}

	ratio := float64(width) / float64(original.Bounds().Dx())
	height := int(float64(original.Bounds().Dy()) * ratio)

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(bitmap, bitmap.Bounds(), original, original.Bounds(), draw.Over, nil)

	encoder := encoders[mimeType]
	var buf bytes.Buffer
	if err := encoder(&buf, bitmap); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
