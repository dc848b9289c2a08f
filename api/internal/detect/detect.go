package detect

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned when the detection model failed to initialise at startup.
var ErrNotLoaded = errors.New("detection model not loaded")

// Detection is one object found in an image. BBox is x1, y1, x2, y2 in pixels.
type Detection struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

type Detector interface {
	Detect(ctx context.Context, image []byte, filename string) ([]Detection, error)
}
