// Copyright 2025 Joseph Cumines
//
// Text recognition boxes and their mapping back to clickable points

package screen

import "math"

// TextBox is a region of recognized text, in pixels of the bitmap the
// recognizer was handed (the final, transformed capture).
type TextBox struct {
	Text string  `json:"text"`
	Conf float64 `json:"confidence"`
	X    int     `json:"x"`
	Y    int     `json:"y"`
	W    int     `json:"w"`
	H    int     `json:"h"`
}

// OCRHit pairs a recognized text box with the window point an agent should
// target to click it. ClickX/ClickY are in points relative to the captured
// window's top-left corner.
type OCRHit struct {
	Box    TextBox `json:"box"`
	ClickX float64 `json:"click_x"`
	ClickY float64 `json:"click_y"`
}

// MapBoxes converts recognizer output into window-point click targets,
// undoing whatever transform produced the recognized bitmap. rz is the
// resize metadata from the capture (nil when the bitmap is untransformed)
// and displayScale the point-to-pixel scale of the captured surface.
//
// A cropped bitmap keeps native resolution, so a box center maps back by
// adding the crop offset and dividing by the display scale. A scaled
// bitmap first undoes the scale factor.
func MapBoxes(boxes []TextBox, rz *Resize, displayScale float64) []OCRHit {
	if len(boxes) == 0 {
		return nil
	}
	if displayScale <= 0 {
		displayScale = 1
	}

	hits := make([]OCRHit, 0, len(boxes))
	for _, b := range boxes {
		cx := float64(b.X) + float64(b.W)/2
		cy := float64(b.Y) + float64(b.H)/2
		switch {
		case rz == nil:
		case rz.Mode == ModeCrop && rz.Crop != nil:
			cx += float64(rz.Crop.X)
			cy += float64(rz.Crop.Y)
		case rz.Mode == ModeScale && rz.Scale > 0:
			cx /= rz.Scale
			cy /= rz.Scale
		}
		hits = append(hits, OCRHit{
			Box:    b,
			ClickX: roundPt(cx / displayScale),
			ClickY: roundPt(cy / displayScale),
		})
	}
	return hits
}

// roundPt rounds to a tenth of a point, enough precision for any click
// target without JSON noise.
func roundPt(v float64) float64 {
	return math.Round(v*10) / 10
}
