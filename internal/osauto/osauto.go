// Copyright 2025 Joseph Cumines
//
// OS automation primitives behind narrow interfaces

// Package osauto wraps the operating system's capture, input, window, and
// clipboard primitives behind small interfaces so everything above them can
// be exercised with fakes. The real implementations lean on
// kbinani/screenshot for pixels and go-vgo/robotgo for everything else.
package osauto

import (
	"image"

	"github.com/joeycumines/screenpilot/internal/screen"
)

// Button identifies a mouse button for click injection.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// Window describes one on-screen window. Bounds are top-left global
// points. ID is stable for the window's lifetime; with the robotgo backend
// it is process-scoped (one frontmost window per process).
type Window struct {
	App    string        `json:"app"`
	Title  string        `json:"title"`
	Bounds screen.Bounds `json:"bounds"`
	ID     int           `json:"id"`
	PID    int           `json:"pid"`
}

// Screen captures display pixels and reports display arrangement. Bounds
// are in top-left global points; captures may come back at a higher pixel
// density than the requested point rect, which is how per-display scale is
// discovered.
type Screen interface {
	NumDisplays() int
	DisplayBounds(i int) screen.Bounds
	Capture(b screen.Bounds) (*image.RGBA, error)
}

// Input injects pointer and keyboard events. Coordinates are top-left
// global points. Implementations are synchronous: when a call returns the
// event has been handed to the OS.
type Input interface {
	Move(p screen.TopLeftPoint)
	Click(btn Button, double bool)
	Scroll(dx, dy int)
	TypeText(s string) int
	CursorPos() screen.TopLeftPoint
}

// Windows enumerates on-screen windows.
type Windows interface {
	List() ([]Window, error)
}

// Clipboard reads and writes the system clipboard's text flavor.
type Clipboard interface {
	Read() (string, error)
	Write(s string) error
}

// Scaler reports the OS-advertised backing scale for a display, used when
// no capture-derived scale is available yet.
type Scaler interface {
	BackingScale(displayIndex int) float64
}

// OCR recognizes text regions in a bitmap. Implementations report boxes in
// pixels of the image they were handed.
type OCR interface {
	Recognize(img image.Image) ([]screen.TextBox, error)
}

// Permissions answers whether the OS has granted the two capabilities the
// gateway depends on, and can ask the OS to prompt for them. Request calls
// return the post-prompt state; persisting grants belongs to the OS.
type Permissions interface {
	CanCapture() bool
	CanInject() bool
	RequestCapture() bool
	RequestInject() bool
}

// GrantedPermissions reports both capabilities as granted, for platforms
// and deployments without a permission gatekeeper.
type GrantedPermissions struct{}

var _ Permissions = GrantedPermissions{}

func (GrantedPermissions) CanCapture() bool     { return true }
func (GrantedPermissions) CanInject() bool      { return true }
func (GrantedPermissions) RequestCapture() bool { return true }
func (GrantedPermissions) RequestInject() bool  { return true }
