// Copyright 2025 Joseph Cumines
//
// Coordinate spaces and conversions for screen geometry

// Package screen holds the coordinate algebra and bitmap transforms shared
// by every capture and input operation: point/pixel conversions, per-display
// scale tracking, downscale/crop passes, and cursor marker compositing.
//
// Three coordinate spaces are in play. Screen points are logical
// coordinates with the origin at the bottom-left of the primary display and
// Y increasing upward. Top-left points share the same units but originate
// at the top-left of the primary display with Y increasing downward; window
// bounds and capture rectangles live in this space. Image pixels are
// device-pixel offsets into a captured bitmap, origin top-left. The scale
// factor between points and pixels is per display and is discovered at
// capture time.
package screen

import "math"

// Point is a location in screen points, origin bottom-left, Y up.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TopLeftPoint is a location in screen points, origin top-left, Y down.
type TopLeftPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WindowPoint is a location in points relative to a window's top-left
// corner, Y down.
type WindowPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pixel is a location in image pixels, origin top-left.
type Pixel struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds is a rectangle in top-left screen points.
type Bounds struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DisplayInfo describes one attached display: its bounds in top-left
// points, its capture size in pixels, and the point-to-pixel scale when
// known (0 means not yet resolved).
type DisplayInfo struct {
	Bounds Bounds  `json:"bounds"`
	PixelW int     `json:"pixel_w"`
	PixelH int     `json:"pixel_h"`
	Scale  float64 `json:"scale"`
	Index  int     `json:"index"`
}

// FlipY converts a Y coordinate between the bottom-left and top-left point
// spaces. The conversion is its own inverse; primaryHeight is the height in
// points of the primary display, which anchors both origins.
func FlipY(y, primaryHeight float64) float64 {
	return primaryHeight - y
}

// ToTopLeft converts a bottom-left screen point to the top-left space.
func (p Point) ToTopLeft(primaryHeight float64) TopLeftPoint {
	return TopLeftPoint{X: p.X, Y: FlipY(p.Y, primaryHeight)}
}

// ToBottomLeft converts a top-left point to the bottom-left screen space.
func (p TopLeftPoint) ToBottomLeft(primaryHeight float64) Point {
	return Point{X: p.X, Y: FlipY(p.Y, primaryHeight)}
}

// Contains reports whether p falls within b. The right and bottom edges
// are exclusive, matching image rectangle semantics.
func (b Bounds) Contains(p TopLeftPoint) bool {
	return p.X >= b.X && p.X < b.X+b.W && p.Y >= b.Y && p.Y < b.Y+b.H
}

// Center returns the midpoint of b.
func (b Bounds) Center() TopLeftPoint {
	return TopLeftPoint{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Global converts a window-relative point to a top-left global point using
// the window's bounds.
func (p WindowPoint) Global(win Bounds) TopLeftPoint {
	return TopLeftPoint{X: win.X + p.X, Y: win.Y + p.Y}
}

// PixelIn converts a top-left point to a pixel offset within the capture
// of d, using d's scale. Results are rounded to the nearest pixel and may
// fall outside the capture when p is outside d.
func (p TopLeftPoint) PixelIn(d DisplayInfo) Pixel {
	return Pixel{
		X: int(math.Round((p.X - d.Bounds.X) * d.Scale)),
		Y: int(math.Round((p.Y - d.Bounds.Y) * d.Scale)),
	}
}

// PointIn converts a pixel offset within the capture of d back to a
// top-left global point.
func (px Pixel) PointIn(d DisplayInfo) TopLeftPoint {
	return TopLeftPoint{
		X: d.Bounds.X + float64(px.X)/d.Scale,
		Y: d.Bounds.Y + float64(px.Y)/d.Scale,
	}
}

// PixelInBounds converts a top-left point to a pixel offset within a
// capture of the given bounds at the given scale. This is the window
// capture variant of PixelIn.
func PixelInBounds(p TopLeftPoint, b Bounds, scale float64) Pixel {
	return Pixel{
		X: int(math.Round((p.X - b.X) * scale)),
		Y: int(math.Round((p.Y - b.Y) * scale)),
	}
}
