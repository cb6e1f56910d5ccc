// Copyright 2025 Joseph Cumines
//
// Display capture backed by kbinani/screenshot

package osauto

import (
	"fmt"
	"image"
	"math"

	"github.com/kbinani/screenshot"

	"github.com/joeycumines/screenpilot/internal/screen"
)

// CaptureScreen is the live display backend. The zero value is ready to
// use.
type CaptureScreen struct{}

var _ Screen = CaptureScreen{}

// NumDisplays returns the number of active displays.
func (CaptureScreen) NumDisplays() int {
	return screenshot.NumActiveDisplays()
}

// DisplayBounds returns the bounds of display i in top-left global points.
func (CaptureScreen) DisplayBounds(i int) screen.Bounds {
	r := screenshot.GetDisplayBounds(i)
	return screen.Bounds{
		X: float64(r.Min.X),
		Y: float64(r.Min.Y),
		W: float64(r.Dx()),
		H: float64(r.Dy()),
	}
}

// Capture grabs the pixels under b. On high-density displays the returned
// image is larger than b; callers derive the scale from the ratio.
func (CaptureScreen) Capture(b screen.Bounds) (*image.RGBA, error) {
	rect := image.Rect(
		int(math.Floor(b.X)),
		int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.W)),
		int(math.Ceil(b.Y+b.H)),
	)
	if rect.Empty() {
		return nil, fmt.Errorf("capture rect %v is empty", rect)
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", rect, err)
	}
	return img, nil
}
