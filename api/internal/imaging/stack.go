package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

// DefaultMaxPixels bounds the size of a stacked page.
const DefaultMaxPixels = 18_000_000

// Stack places the images top to bottom, centred on a white page, and
// returns the result as JPEG. Pages larger than maxPixels are scaled down.
func Stack(images [][]byte, maxPixels int) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrEmpty
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	decoded := make([]image.Image, 0, len(images))
	maxW, sumH := 0, 0
	for i, b := range images {
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		decoded = append(decoded, img)
		maxW = max(maxW, img.Bounds().Dx())
		sumH += img.Bounds().Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, errors.New("stack: empty images")
	}

	page := image.NewRGBA(image.Rect(0, 0, maxW, sumH))
	draw.Draw(page, page.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	y := 0
	for _, img := range decoded {
		b := img.Bounds()
		x := (maxW - b.Dx()) / 2
		draw.Draw(page, image.Rect(x, y, x+b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
		y += b.Dy()
	}

	var final image.Image = page
	if total := maxW * sumH; total > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(total))
		w := max(1, int(float64(maxW)*scale))
		h := max(1, int(float64(sumH)*scale))
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), page, page.Bounds(), draw.Src, nil)
		final = dst
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, final, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
