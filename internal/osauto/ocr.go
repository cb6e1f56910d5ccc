// Copyright 2025 Joseph Cumines
//
// OCR seam with a stub backend

package osauto

import (
	"errors"
	"image"

	"github.com/joeycumines/screenpilot/internal/screen"
)

// ErrOCRUnavailable is returned when no recognizer backend is wired in.
var ErrOCRUnavailable = errors.New("ocr backend unavailable")

// UnavailableOCR satisfies OCR without a backend. Deployments that want
// text recognition swap in a real recognizer at construction time; the
// capture pipeline and box mapping stay identical either way.
type UnavailableOCR struct{}

var _ OCR = UnavailableOCR{}

// Recognize always reports that no backend is available.
func (UnavailableOCR) Recognize(image.Image) ([]screen.TextBox, error) {
	return nil, ErrOCRUnavailable
}
