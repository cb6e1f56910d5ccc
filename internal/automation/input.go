// Copyright 2025 Joseph Cumines
//
// Pointer and keyboard operations in screen, pixel, and window spaces

package automation

import (
	"fmt"
	"math"
	"strings"

	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/screen"
)

// Space names the coordinate space of caller-supplied pointer coordinates.
type Space string

const (
	// SpaceScreen is the default: logical screen points, origin at the
	// bottom-left of the primary display.
	SpaceScreen Space = "screen"
	// SpacePixels addresses device pixels of the primary display's capture,
	// origin top-left, as reported in capture metadata.
	SpacePixels Space = "pixels"
)

// ParseSpace validates a textual coordinate space, defaulting empty to
// screen points.
func ParseSpace(s string) (Space, error) {
	switch Space(strings.ToLower(strings.TrimSpace(s))) {
	case "", SpaceScreen:
		return SpaceScreen, nil
	case SpacePixels:
		return SpacePixels, nil
	}
	return "", fmt.Errorf("%w: invalid space %q: expected screen or pixels", ErrBadRequest, s)
}

// CursorInfo reports the pointer location in every space a caller might
// hold coordinates in.
type CursorInfo struct {
	Screen  screen.Point        `json:"screen"`
	TopLeft screen.TopLeftPoint `json:"top_left"`
	Pixel   screen.Pixel        `json:"pixel"`
	Display screen.DisplayInfo  `json:"display"`
}

// CursorPosition returns where the pointer is right now.
func (e *Engine) CursorPosition() (CursorInfo, error) {
	ds := e.displays()
	if len(ds) == 0 {
		return CursorInfo{}, ErrNoDisplay
	}
	pos := e.input.CursorPos()
	d := displayContaining(ds, pos)
	d.Scale, _ = e.displayScale(d)

	return CursorInfo{
		Screen:  pos.ToBottomLeft(ds[0].Bounds.H),
		TopLeft: pos,
		Pixel:   pos.PixelIn(d),
		Display: d,
	}, nil
}

// Click moves the pointer to (x, y) in the given space and presses btn.
func (e *Engine) Click(x, y float64, space Space, btn osauto.Button, double bool) (screen.TopLeftPoint, error) {
	if !e.perms.CanInject() {
		return screen.TopLeftPoint{}, ErrInputDenied
	}
	p, err := e.target(x, y, space)
	if err != nil {
		return screen.TopLeftPoint{}, err
	}
	e.clickAt(p, btn, double)
	return p, nil
}

// MoveMouse places the pointer at (x, y) in the given space.
func (e *Engine) MoveMouse(x, y float64, space Space) (screen.TopLeftPoint, error) {
	if !e.perms.CanInject() {
		return screen.TopLeftPoint{}, ErrInputDenied
	}
	p, err := e.target(x, y, space)
	if err != nil {
		return screen.TopLeftPoint{}, err
	}
	e.input.Move(p)
	return p, nil
}

// Scroll scrolls by (dx, dy) wheel steps, optionally positioning the
// pointer at (x, y) first so the scroll lands on a specific surface.
func (e *Engine) Scroll(dx, dy int, x, y *float64, space Space) error {
	if !e.perms.CanInject() {
		return ErrInputDenied
	}
	if (x == nil) != (y == nil) {
		return fmt.Errorf("%w: scroll position requires both x and y", ErrBadRequest)
	}
	if x != nil {
		p, err := e.target(*x, *y, space)
		if err != nil {
			return err
		}
		e.input.Move(p)
		e.sleep(e.settle)
	}
	e.input.Scroll(dx, dy)
	return nil
}

// TypeText injects s as keystrokes and returns the number of runes typed.
func (e *Engine) TypeText(s string) (int, error) {
	if !e.perms.CanInject() {
		return 0, ErrInputDenied
	}
	if s == "" {
		return 0, fmt.Errorf("%w: text must not be empty", ErrBadRequest)
	}
	return e.input.TypeText(s), nil
}

// MoveToWindow places the pointer at a window-relative point, defaulting
// to the window's center, and returns the resolved window and the global
// point the pointer landed on.
func (e *Engine) MoveToWindow(sel Selector, at *screen.WindowPoint) (osauto.Window, screen.TopLeftPoint, error) {
	if !e.perms.CanInject() {
		return osauto.Window{}, screen.TopLeftPoint{}, ErrInputDenied
	}
	win, p, err := e.windowTarget(sel, at)
	if err != nil {
		return osauto.Window{}, screen.TopLeftPoint{}, err
	}
	e.input.Move(p)
	return win, p, nil
}

// ClickInWindow clicks at a window-relative point, defaulting to the
// window's center.
func (e *Engine) ClickInWindow(sel Selector, at *screen.WindowPoint, btn osauto.Button, double bool) (osauto.Window, screen.TopLeftPoint, error) {
	if !e.perms.CanInject() {
		return osauto.Window{}, screen.TopLeftPoint{}, ErrInputDenied
	}
	win, p, err := e.windowTarget(sel, at)
	if err != nil {
		return osauto.Window{}, screen.TopLeftPoint{}, err
	}
	e.clickAt(p, btn, double)
	return win, p, nil
}

// ScrollInWindow scrolls at a window-relative point, defaulting to the
// window's center.
func (e *Engine) ScrollInWindow(sel Selector, at *screen.WindowPoint, dx, dy int) (osauto.Window, error) {
	if !e.perms.CanInject() {
		return osauto.Window{}, ErrInputDenied
	}
	win, p, err := e.windowTarget(sel, at)
	if err != nil {
		return osauto.Window{}, err
	}
	e.input.Move(p)
	e.sleep(e.settle)
	e.input.Scroll(dx, dy)
	return win, nil
}

// clickAt moves, settles, and presses. The settle pause keeps fast
// move-click sequences from outrunning the foreground app's hit testing.
// Callers have already checked injection permission.
func (e *Engine) clickAt(p screen.TopLeftPoint, btn osauto.Button, double bool) {
	e.input.Move(p)
	e.sleep(e.settle)
	e.input.Click(btn, double)
}

// target converts caller coordinates to the OS-native top-left point
// space. Pixel coordinates are interpreted against the primary display's
// capture, the space capture metadata reports.
func (e *Engine) target(x, y float64, space Space) (screen.TopLeftPoint, error) {
	ds := e.displays()
	if len(ds) == 0 {
		return screen.TopLeftPoint{}, ErrNoDisplay
	}
	switch space {
	case SpacePixels:
		d := ds[0]
		d.Scale, _ = e.displayScale(d)
		px := screen.Pixel{X: int(math.Round(x)), Y: int(math.Round(y))}
		return px.PointIn(d), nil
	default:
		return screen.Point{X: x, Y: y}.ToTopLeft(ds[0].Bounds.H), nil
	}
}

// windowTarget resolves sel and a window-relative point (default center)
// to a global top-left point.
func (e *Engine) windowTarget(sel Selector, at *screen.WindowPoint) (osauto.Window, screen.TopLeftPoint, error) {
	wins, err := e.windows.List()
	if err != nil {
		return osauto.Window{}, screen.TopLeftPoint{}, fmt.Errorf("list windows: %w", err)
	}
	win, err := ResolveWindow(wins, sel)
	if err != nil {
		return osauto.Window{}, screen.TopLeftPoint{}, err
	}
	wp := screen.WindowPoint{X: win.Bounds.W / 2, Y: win.Bounds.H / 2}
	if at != nil {
		wp = *at
	}
	return win, wp.Global(win.Bounds), nil
}

// ParseButton validates a mouse button name, defaulting empty to left.
func ParseButton(s string) (osauto.Button, error) {
	switch osauto.Button(strings.ToLower(strings.TrimSpace(s))) {
	case "", osauto.ButtonLeft:
		return osauto.ButtonLeft, nil
	case osauto.ButtonRight:
		return osauto.ButtonRight, nil
	}
	return "", fmt.Errorf("%w: invalid button %q: expected left or right", ErrBadRequest, s)
}
