// Copyright 2025 Joseph Cumines
//
// Bitmap downscale, crop, and cursor marker compositing

package screen

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Edge ceilings, in pixels on the longest edge. Recommended matches the
// resolution vision models ingest without tiling; Safe stays under the
// single-tile limit of smaller models; HardLimit caps explicit requests.
const (
	SizeRecommended = 1568
	SizeSafe        = 1092
	SizeHardLimit   = 8000
)

// MaxSize is a requested edge ceiling. It decodes from JSON as either an
// integer (used verbatim, clamped to SizeHardLimit) or one of the tokens
// "recommended", "safe", and "full" (no ceiling). The zero value means
// unset, which resolves to the recommended ceiling.
type MaxSize struct {
	value int
	set   bool
}

// MaxSizeFrom returns a MaxSize holding an explicit pixel ceiling.
func MaxSizeFrom(v int) MaxSize {
	return MaxSize{value: v, set: true}
}

// ParseMaxSize interprets a textual max size: a decimal integer or one of
// the ceiling tokens.
func ParseMaxSize(s string) (MaxSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return MaxSize{}, nil
	case "recommended":
		return MaxSizeFrom(SizeRecommended), nil
	case "safe":
		return MaxSizeFrom(SizeSafe), nil
	case "full":
		return MaxSizeFrom(0), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return MaxSize{}, fmt.Errorf("invalid max_size %q: expected integer or one of recommended, safe, full", s)
	}
	if n < 0 {
		return MaxSize{}, fmt.Errorf("invalid max_size %d: must not be negative", n)
	}
	return MaxSizeFrom(n), nil
}

// UnmarshalJSON accepts a number or a token string. JSON null leaves the
// value unset.
func (m *MaxSize) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, perr := ParseMaxSize(s)
		if perr != nil {
			return perr
		}
		*m = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid max_size: expected integer or string")
	}
	if n < 0 {
		return fmt.Errorf("invalid max_size %d: must not be negative", n)
	}
	*m = MaxSizeFrom(n)
	return nil
}

// Ceiling resolves the effective edge ceiling in pixels. 0 means no
// ceiling.
func (m MaxSize) Ceiling() int {
	if !m.set {
		return SizeRecommended
	}
	if m.value == 0 {
		return 0
	}
	if m.value > SizeHardLimit {
		return SizeHardLimit
	}
	return m.value
}

// Mode selects how an oversized capture is brought under the ceiling.
type Mode string

const (
	// ModeScale shrinks the whole bitmap proportionally. Default for
	// full-screen captures, where overall layout matters more than detail.
	ModeScale Mode = "scale"
	// ModeCrop cuts a ceiling-sized region out of the bitmap, keeping
	// native resolution. Default for window captures, where legible text
	// matters more than seeing the whole surface.
	ModeCrop Mode = "crop"
)

// ParseMode validates a textual mode, defaulting empty to def.
func ParseMode(s string, def Mode) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case ModeScale:
		return ModeScale, nil
	case ModeCrop:
		return ModeCrop, nil
	}
	return "", fmt.Errorf("invalid mode %q: expected scale or crop", s)
}

// Resize records the transform applied to a capture. It is attached to
// capture metadata only when a transform actually ran.
type Resize struct {
	Mode   Mode    `json:"mode"`
	Scale  float64 `json:"scale,omitempty"`
	Crop   *Pixel  `json:"crop,omitempty"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// Apply brings src under the given edge ceiling using the given mode and
// returns the result plus resize metadata. When src is already within the
// ceiling (or the ceiling is 0) src is returned unchanged with nil
// metadata. cursor, when non-nil, is the cursor position in src pixels and
// steers crop placement.
func Apply(src *image.RGBA, ceiling int, mode Mode, cursor *Pixel) (*image.RGBA, *Resize) {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	if ceiling <= 0 || (w <= ceiling && h <= ceiling) {
		return src, nil
	}
	if mode == ModeCrop {
		return applyCrop(src, ceiling, cursor)
	}
	return applyScale(src, ceiling)
}

// applyScale shrinks src proportionally so its longest edge equals the
// ceiling. It never enlarges.
func applyScale(src *image.RGBA, ceiling int) (*image.RGBA, *Resize) {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	factor := float64(ceiling) / float64(max(w, h))
	dw := max(1, int(math.Round(float64(w)*factor)))
	dh := max(1, int(math.Round(float64(h)*factor)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	return dst, &Resize{Mode: ModeScale, Scale: factor, Width: dw, Height: dh}
}

// applyCrop cuts a region of at most ceiling pixels per axis out of src.
// Each axis is handled independently: an axis already within the ceiling
// keeps its full extent. When the cursor lies inside src the crop window
// is centered on it and clamped to the edges, so a cursor near an edge
// yields an edge-aligned crop; without a cursor the crop anchors at the
// top-left.
func applyCrop(src *image.RGBA, ceiling int, cursor *Pixel) (*image.RGBA, *Resize) {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	cw := min(w, ceiling)
	ch := min(h, ceiling)

	var ox, oy int
	if cursor != nil && cursor.X >= 0 && cursor.X < w && cursor.Y >= 0 && cursor.Y < h {
		ox = clampInt(cursor.X-cw/2, 0, w-cw)
		oy = clampInt(cursor.Y-ch/2, 0, h-ch)
	}

	dst := image.NewRGBA(image.Rect(0, 0, cw, ch))
	xdraw.Copy(dst, image.Point{}, src, image.Rect(ox, oy, ox+cw, oy+ch).Add(src.Bounds().Min), xdraw.Src, nil)

	return dst, &Resize{Mode: ModeCrop, Crop: &Pixel{X: ox, Y: oy}, Width: cw, Height: ch}
}

// Cursor marker geometry, in pixels at scale 1. The marker is drawn on the
// original bitmap before any downscale so it survives the transform.
const (
	cursorRingRadius = 14.0
	cursorRingStroke = 3.0
	cursorDotRadius  = 4.0
	cursorHalo       = 1.5
	// CursorPad extends the region a cursor is considered "within" for
	// marker drawing, so a cursor hugging a window edge still shows.
	CursorPad = 16
)

var (
	cursorFill      = color.RGBA{R: 0xff, G: 0x3b, B: 0x30, A: 0xff}
	cursorHaloColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// DrawCursor composites a ring-and-dot marker onto img at p, sized for the
// given capture scale. It returns false without drawing when p lies
// outside the image grown by CursorPad on every side.
func DrawCursor(img *image.RGBA, p Pixel, scale float64) bool {
	b := img.Bounds()
	pad := int(math.Ceil(CursorPad * math.Max(scale, 1)))
	if p.X < b.Min.X-pad || p.X >= b.Max.X+pad || p.Y < b.Min.Y-pad || p.Y >= b.Max.Y+pad {
		return false
	}

	k := math.Max(scale, 1)
	ring := cursorRingRadius * k
	stroke := cursorRingStroke * k
	dot := cursorDotRadius * k
	halo := cursorHalo * k
	reach := int(math.Ceil(ring + halo + 1))

	for dy := -reach; dy <= reach; dy++ {
		y := p.Y + dy
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for dx := -reach; dx <= reach; dx++ {
			x := p.X + dx
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			d := math.Hypot(float64(dx), float64(dy))
			switch {
			case d <= dot:
				img.SetRGBA(x, y, cursorFill)
			case d <= dot+halo:
				img.SetRGBA(x, y, cursorHaloColor)
			case d >= ring-stroke && d <= ring:
				img.SetRGBA(x, y, cursorFill)
			case (d >= ring-stroke-halo && d < ring-stroke) || (d > ring && d <= ring+halo):
				img.SetRGBA(x, y, cursorHaloColor)
			}
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
