// Package imaging decodes client images and fetches remote ones.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrEmpty = errors.New("empty image")

// Normalize checks that data is a decodable image. PNG and JPEG are returned
// as is; every other format is re-encoded to PNG so OCR engines only ever see
// the two formats they all accept.
func Normalize(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, "", fmt.Errorf("decode image: %dx%d", cfg.Width, cfg.Height)
	}
	if format == "png" || format == "jpeg" {
		return data, format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), "png", nil
}
