// Copyright 2025 Joseph Cumines
//
// Calibration: verify capture, scale discovery, and OCR in one pass

package automation

import "github.com/joeycumines/screenpilot/internal/screen"

// Calibration reports how well the gateway can currently see the screen:
// the measured display scale and where it came from, whether the OCR
// backend is live, and whether guidance text the caller put on screen was
// recognized and is clickable.
type Calibration struct {
	Display     screen.DisplayInfo `json:"display"`
	Guidance    string             `json:"guidance,omitempty"`
	Match       *screen.OCRHit     `json:"match,omitempty"`
	OCRNote     string             `json:"ocr_note,omitempty"`
	ScaleSource string             `json:"scale_source"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Hits        int                `json:"hits"`
	Scale       float64            `json:"scale"`
	Found       bool               `json:"found"`
}

// Calibrate captures a display without the cursor overlay, measures its
// scale from the capture, and runs OCR looking for the guidance text. A
// caller that renders a known string on screen and sees found=true with a
// sensible click point has verified the whole capture-to-click pipeline.
// Empty guidance still reports scale and OCR health.
func (e *Engine) Calibrate(guidance string, display *int) (*Calibration, error) {
	off := false
	c, err := e.CaptureScreen(CaptureOptions{
		Cursor:  &off,
		Embed:   &off,
		Display: display,
		MaxSize: screen.MaxSizeFrom(0), // full resolution: measured scale and OCR boxes stay in native pixels
		OCR:     true,
	})
	if err != nil {
		return nil, err
	}

	cal := &Calibration{
		Display:     c.Display,
		Guidance:    guidance,
		OCRNote:     c.OCRNote,
		ScaleSource: c.ScaleSource,
		Width:       c.Width,
		Height:      c.Height,
		Hits:        len(c.OCR),
		Scale:       c.Scale,
	}
	if guidance == "" {
		return cal, nil
	}
	for i := range c.OCR {
		if containsFold(c.OCR[i].Box.Text, guidance) {
			cal.Found = true
			cal.Match = &c.OCR[i]
			break
		}
	}
	return cal, nil
}
