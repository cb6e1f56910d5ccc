// Copyright 2025 Joseph Cumines
//
// Per-display point-to-pixel scale discovery and caching

package screen

import (
	"math"
	"sync"
)

// Scale sanity bounds. Captures occasionally report degenerate sizes
// (zero-area windows, mid-resolution-switch reads); ratios outside this
// envelope are rejected rather than cached.
const (
	scaleIsotropyTolerance = 0.02
	scaleMin               = 0.5
	scaleMax               = 8.0
)

// DeriveScale returns the point-to-pixel scale implied by a capture of
// pixelW by pixelH pixels covering a region of w by h points. It returns 0
// when the implied ratio is anisotropic beyond tolerance or implausible,
// in which case the caller should fall back to another scale source.
func DeriveScale(pixelW, pixelH int, w, h float64) float64 {
	if pixelW <= 0 || pixelH <= 0 || w <= 0 || h <= 0 {
		return 0
	}
	sx := float64(pixelW) / w
	sy := float64(pixelH) / h
	if math.Abs(sx-sy) > scaleIsotropyTolerance*math.Max(sx, sy) {
		return 0
	}
	s := (sx + sy) / 2
	if s < scaleMin || s > scaleMax {
		return 0
	}
	return s
}

// PlausibleScale reports whether s passed the DeriveScale sanity envelope.
func PlausibleScale(s float64) bool {
	return s >= scaleMin && s <= scaleMax
}

// ScaleCache remembers the scale observed on the most recent capture of
// each display, keyed by the display's bounds. A display whose bounds
// change (resolution or arrangement change) misses the cache and is
// re-derived on its next capture. The cache must be owned by whoever
// coordinates captures; it is not a package-level singleton.
type ScaleCache struct {
	mu       sync.Mutex
	byBounds map[Bounds]float64
}

// NewScaleCache returns an empty cache.
func NewScaleCache() *ScaleCache {
	return &ScaleCache{byBounds: make(map[Bounds]float64)}
}

// Put records the scale observed for a display with the given bounds.
// Implausible values are ignored so a bad capture cannot poison the cache.
func (c *ScaleCache) Put(b Bounds, scale float64) {
	if !PlausibleScale(scale) {
		return
	}
	c.mu.Lock()
	c.byBounds[b] = scale
	c.mu.Unlock()
}

// Get returns the cached scale for a display with the given bounds.
func (c *ScaleCache) Get(b Bounds) (float64, bool) {
	c.mu.Lock()
	s, ok := c.byBounds[b]
	c.mu.Unlock()
	return s, ok
}

// Len returns the number of cached displays.
func (c *ScaleCache) Len() int {
	c.mu.Lock()
	n := len(c.byBounds)
	c.mu.Unlock()
	return n
}
