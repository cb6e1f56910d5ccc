// Copyright 2025 Joseph Cumines
//
// Capture orchestration: display selection, scale discovery, transforms

// Package automation owns the gateway's engine: it orchestrates the OS
// capture and input primitives, applies the coordinate and image policies,
// and persists capture artifacts. Both protocol surfaces call into the one
// Engine, so behavior cannot drift between them.
package automation

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"time"

	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/screen"
)

// Deps are the collaborators an Engine drives. Screen, Input, and Windows
// are required; the rest default to reasonable stand-ins (granted
// permissions, no OCR backend, a fresh scale cache).
type Deps struct {
	Screen    osauto.Screen
	Input     osauto.Input
	Windows   osauto.Windows
	Clipboard osauto.Clipboard
	Scaler    osauto.Scaler
	OCR       osauto.OCR
	Perms     osauto.Permissions
	Artifacts *ArtifactStore
}

// Engine coordinates every automation operation. It owns the only shared
// mutable state in the process: the scale cache and the artifact store's
// sequence counter, both internally guarded. Engines are safe for
// concurrent use.
type Engine struct {
	screenSrc osauto.Screen
	input     osauto.Input
	windows   osauto.Windows
	clipboard osauto.Clipboard
	scaler    osauto.Scaler
	ocr       osauto.OCR
	perms     osauto.Permissions
	artifacts *ArtifactStore
	scales    *screen.ScaleCache
	settle    time.Duration
	sleep     func(time.Duration)
	now       func() time.Time
}

// settleDelay is the pause between placing the cursor and pressing a
// button, giving the foreground app's event loop time to track the move.
const settleDelay = 25 * time.Millisecond

// New returns an Engine over the given collaborators.
func New(deps Deps) *Engine {
	e := &Engine{
		screenSrc: deps.Screen,
		input:     deps.Input,
		windows:   deps.Windows,
		clipboard: deps.Clipboard,
		scaler:    deps.Scaler,
		ocr:       deps.OCR,
		perms:     deps.Perms,
		artifacts: deps.Artifacts,
		scales:    screen.NewScaleCache(),
		settle:    settleDelay,
		sleep:     time.Sleep,
		now:       time.Now,
	}
	if e.ocr == nil {
		e.ocr = osauto.UnavailableOCR{}
	}
	if e.perms == nil {
		e.perms = osauto.GrantedPermissions{}
	}
	return e
}

// CaptureOptions tune a capture. Nil pointer fields take their defaults:
// cursor overlay on, image payload embedded, display chosen by cursor
// position.
type CaptureOptions struct {
	Cursor  *bool
	Embed   *bool
	Display *int
	Mode    string
	MaxSize screen.MaxSize
	OCR     bool
}

// Capture is the result of a screen or window capture. PNG holds the final
// encoded bitmap; Resize, and with it OrigWidth/OrigHeight, is present only
// when the bitmap had to be brought under the requested ceiling.
type Capture struct {
	CapturedAt  time.Time          `json:"captured_at"`
	Window      *osauto.Window     `json:"window,omitempty"`
	Resize      *screen.Resize     `json:"resize,omitempty"`
	OCR         []screen.OCRHit    `json:"ocr,omitempty"`
	PNG         []byte             `json:"-"`
	OCRNote     string             `json:"ocr_note,omitempty"`
	Path        string             `json:"path,omitempty"`
	ScaleSource string             `json:"scale_source"`
	Display     screen.DisplayInfo `json:"display"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	OrigWidth   int                `json:"original_width,omitempty"`
	OrigHeight  int                `json:"original_height,omitempty"`
	Scale       float64            `json:"scale"`
	CursorDrawn bool               `json:"cursor_drawn"`
	Embedded    bool               `json:"-"`
}

// CaptureScreen captures one whole display: by index when requested,
// otherwise the display under the cursor. The default transform is scale
// mode, preserving overall layout.
func (e *Engine) CaptureScreen(opts CaptureOptions) (*Capture, error) {
	if !e.perms.CanCapture() {
		return nil, ErrCaptureDenied
	}
	mode, err := screen.ParseMode(opts.Mode, screen.ModeScale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	ds := e.displays()
	if len(ds) == 0 {
		return nil, ErrNoDisplay
	}
	cursor := e.input.CursorPos()
	var d screen.DisplayInfo
	if opts.Display != nil {
		i := *opts.Display
		if i < 0 || i >= len(ds) {
			return nil, fmt.Errorf("%w: display %d out of range, have %d", ErrBadRequest, i, len(ds))
		}
		d = ds[i]
	} else {
		d = displayContaining(ds, cursor)
	}

	img, err := e.screenSrc.Capture(d.Bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", d.Index, err)
	}
	scale, source := e.captureScale(d, img.Bounds().Dx(), img.Bounds().Dy())
	d.PixelW = img.Bounds().Dx()
	d.PixelH = img.Bounds().Dy()
	d.Scale = scale

	cursorPx := cursor.PixelIn(d)
	drawn := false
	if wantCursor(opts.Cursor) {
		drawn = screen.DrawCursor(img, cursorPx, scale)
	}

	final, rz := screen.Apply(img, opts.MaxSize.Ceiling(), mode, &cursorPx)
	c, err := e.finishCapture(final, rz, img, scale, source, opts, e.artifacts.SaveScreen)
	if err != nil {
		return nil, err
	}
	c.Display = d
	c.CursorDrawn = drawn
	return c, nil
}

// CaptureWindow resolves sel, captures the window's bounds, and transforms
// the bitmap. The default transform is crop mode, keeping pixel-exact
// coordinates inside the kept region.
func (e *Engine) CaptureWindow(sel Selector, opts CaptureOptions) (*Capture, error) {
	if !e.perms.CanCapture() {
		return nil, ErrCaptureDenied
	}
	mode, err := screen.ParseMode(opts.Mode, screen.ModeCrop)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	wins, err := e.windows.List()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	win, err := ResolveWindow(wins, sel)
	if err != nil {
		return nil, err
	}

	ds := e.displays()
	if len(ds) == 0 {
		return nil, ErrNoDisplay
	}
	d := displayContaining(ds, win.Bounds.Center())

	img, err := e.screenSrc.Capture(win.Bounds)
	if err != nil {
		return nil, fmt.Errorf("capture window %d: %w", win.ID, err)
	}

	// A window capture measures the same display scale a full-screen
	// capture would, so it feeds the same cache slot.
	scale := screen.DeriveScale(img.Bounds().Dx(), img.Bounds().Dy(), win.Bounds.W, win.Bounds.H)
	source := "capture"
	if scale > 0 {
		e.scales.Put(d.Bounds, scale)
	} else {
		scale, source = e.displayScale(d)
	}
	d.Scale = scale

	cursorPx := screen.PixelInBounds(e.input.CursorPos(), win.Bounds, scale)
	drawn := false
	if wantCursor(opts.Cursor) {
		drawn = screen.DrawCursor(img, cursorPx, scale)
	}

	final, rz := screen.Apply(img, opts.MaxSize.Ceiling(), mode, &cursorPx)
	c, err := e.finishCapture(final, rz, img, scale, source, opts, e.artifacts.SaveWindow)
	if err != nil {
		return nil, err
	}
	c.Display = d
	c.Window = &win
	c.CursorDrawn = drawn
	return c, nil
}

// finishCapture encodes, persists, and annotates a transformed bitmap.
// Artifact persistence is best-effort: a write failure is logged and the
// capture succeeds with an empty path.
func (e *Engine) finishCapture(final *image.RGBA, rz *screen.Resize, orig *image.RGBA, scale float64, source string, opts CaptureOptions, save func([]byte) (string, error)) (*Capture, error) {
	data, err := encodePNG(final)
	if err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}

	path, err := save(data)
	if err != nil {
		log.Printf("capture artifact not persisted: %v", err)
		path = ""
	}

	c := &Capture{
		CapturedAt:  e.now(),
		PNG:         data,
		Path:        path,
		Width:       final.Bounds().Dx(),
		Height:      final.Bounds().Dy(),
		Resize:      rz,
		Scale:       scale,
		ScaleSource: source,
		Embedded:    opts.Embed == nil || *opts.Embed,
	}
	if rz != nil {
		c.OrigWidth = orig.Bounds().Dx()
		c.OrigHeight = orig.Bounds().Dy()
	}
	if opts.OCR {
		e.runOCR(c, final, rz, scale)
	}
	return c, nil
}

// runOCR recognizes text on the final bitmap and maps boxes back to window
// points. A missing or failing backend annotates the capture instead of
// failing it.
func (e *Engine) runOCR(c *Capture, img image.Image, rz *screen.Resize, scale float64) {
	boxes, err := e.ocr.Recognize(img)
	if err != nil {
		if errors.Is(err, osauto.ErrOCRUnavailable) {
			c.OCRNote = "ocr backend unavailable"
		} else {
			c.OCRNote = fmt.Sprintf("ocr failed: %v", err)
		}
		return
	}
	c.OCR = screen.MapBoxes(boxes, rz, scale)
}

// WindowInfo is a window descriptor annotated with the index of the
// display containing the window's center.
type WindowInfo struct {
	osauto.Window
	Display int `json:"display"`
}

// ListWindows snapshots the current window layout. The snapshot is never
// cached; layout changes between calls are expected.
func (e *Engine) ListWindows() ([]WindowInfo, error) {
	wins, err := e.windows.List()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	ds := e.displays()
	if len(ds) == 0 {
		return nil, ErrNoDisplay
	}
	out := make([]WindowInfo, len(wins))
	for i, w := range wins {
		out[i] = WindowInfo{Window: w, Display: displayContaining(ds, w.Bounds.Center()).Index}
	}
	return out, nil
}

// ReadClipboard returns the clipboard's text contents.
func (e *Engine) ReadClipboard() (string, error) {
	return e.clipboard.Read()
}

// WriteClipboard replaces the clipboard's text contents.
func (e *Engine) WriteClipboard(s string) error {
	return e.clipboard.Write(s)
}

// Artifacts exposes the store for the debug viewer endpoints.
func (e *Engine) Artifacts() *ArtifactStore { return e.artifacts }

// displays snapshots the current display arrangement. Pixel sizes and
// scales are filled in lazily as captures happen.
func (e *Engine) displays() []screen.DisplayInfo {
	n := e.screenSrc.NumDisplays()
	ds := make([]screen.DisplayInfo, 0, n)
	for i := 0; i < n; i++ {
		ds = append(ds, screen.DisplayInfo{Index: i, Bounds: e.screenSrc.DisplayBounds(i)})
	}
	return ds
}

// Displays lists the current display arrangement with resolved scales.
func (e *Engine) Displays() ([]screen.DisplayInfo, error) {
	ds := e.displays()
	if len(ds) == 0 {
		return nil, ErrNoDisplay
	}
	for i := range ds {
		ds[i].Scale, _ = e.displayScale(ds[i])
	}
	return ds, nil
}

// captureScale derives the display scale from a fresh capture's
// pixel-to-point ratio, remembering it for later conversions. An unusable
// ratio falls back to the stale-capture, backing-factor, nominal order.
func (e *Engine) captureScale(d screen.DisplayInfo, pixelW, pixelH int) (float64, string) {
	if s := screen.DeriveScale(pixelW, pixelH, d.Bounds.W, d.Bounds.H); s > 0 {
		e.scales.Put(d.Bounds, s)
		return s, "capture"
	}
	return e.displayScale(d)
}

// displayScale resolves a scale without a fresh capture: the cache holds
// the most recent capture's measurement, which reflects the resolution the
// caller's coordinates were computed against; the OS backing factor and
// the nominal pixel/point ratio are progressively weaker substitutes.
func (e *Engine) displayScale(d screen.DisplayInfo) (float64, string) {
	if s, ok := e.scales.Get(d.Bounds); ok {
		return s, "cache"
	}
	if e.scaler != nil {
		if s := e.scaler.BackingScale(d.Index); s > 0 {
			return s, "backing"
		}
	}
	if s := screen.DeriveScale(d.PixelW, d.PixelH, d.Bounds.W, d.Bounds.H); s > 0 {
		return s, "nominal"
	}
	return 1, "nominal"
}

// displayContaining returns the display whose bounds contain p, defaulting
// to the primary display.
func displayContaining(ds []screen.DisplayInfo, p screen.TopLeftPoint) screen.DisplayInfo {
	for _, d := range ds {
		if d.Bounds.Contains(p) {
			return d
		}
	}
	return ds[0]
}

// wantCursor resolves the optional cursor-overlay flag, which defaults on.
func wantCursor(v *bool) bool { return v == nil || *v }

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
