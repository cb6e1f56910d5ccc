// Copyright 2025 Joseph Cumines
//
// Error mapping and shared response envelopes

package server

import (
	"encoding/base64"
	"errors"

	"github.com/joeycumines/screenpilot/internal/automation"
	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/screen"
	"github.com/joeycumines/screenpilot/internal/transport"
)

// errorBody is the structured error every surface returns: a stable
// machine-readable tag plus free-text detail for diagnostics.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func errorJSON(status int, tag, detail string) *transport.Response {
	return transport.JSONResponse(status, errorBody{Error: tag, Detail: detail})
}

// errorResponse maps an engine error to its HTTP status and tag. Callers
// branch on the tag; the detail is never a stable interface.
func errorResponse(err error) *transport.Response {
	switch {
	case errors.Is(err, automation.ErrBadRequest):
		return errorJSON(400, "bad_request", err.Error())
	case errors.Is(err, automation.ErrWindowNotFound):
		return errorJSON(404, "window_not_found", err.Error())
	case errors.Is(err, automation.ErrCaptureDenied):
		return errorJSON(403, "screen_capture_denied", err.Error())
	case errors.Is(err, automation.ErrInputDenied):
		return errorJSON(403, "input_denied", err.Error())
	}
	return errorJSON(500, "internal_error", err.Error())
}

// captureBody is the wire shape of a capture on both surfaces. The PNG
// payload is embedded as base64 unless the caller opted out.
type captureBody struct {
	OK bool `json:"ok"`
	*automation.Capture
	Image     string `json:"image,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

func captureEnvelope(c *automation.Capture) captureBody {
	body := captureBody{OK: true, Capture: c}
	if c.Embedded {
		body.Image = base64.StdEncoding.EncodeToString(c.PNG)
		body.MediaType = "image/png"
	}
	return body
}

// pointBody acknowledges a pointer operation with the top-left screen
// point the pointer landed on.
type pointBody struct {
	OK bool    `json:"ok"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func pointEnvelope(p screen.TopLeftPoint) pointBody {
	return pointBody{OK: true, X: p.X, Y: p.Y}
}

// windowPointBody extends pointBody with the resolved window.
type windowPointBody struct {
	OK     bool          `json:"ok"`
	Window osauto.Window `json:"window"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
}

// windowsBody is the window-list envelope.
type windowsBody struct {
	OK      bool                    `json:"ok"`
	Count   int                     `json:"count"`
	Windows []automation.WindowInfo `json:"windows"`
}

// cursorBody wraps the cursor query result.
type cursorBody struct {
	OK bool `json:"ok"`
	automation.CursorInfo
}

// burstBody wraps a burst outcome.
type burstBody struct {
	OK bool `json:"ok"`
	*automation.Burst
}

// calibrationBody wraps a calibration report.
type calibrationBody struct {
	OK bool `json:"ok"`
	*automation.Calibration
}
