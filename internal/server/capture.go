// Copyright 2025 Joseph Cumines
//
// Capture route handlers: screenshot, window capture, burst, calibration

package server

import (
	"github.com/joeycumines/screenpilot/internal/automation"
	"github.com/joeycumines/screenpilot/internal/screen"
	"github.com/joeycumines/screenpilot/internal/transport"
)

// handleScreenshot serves POST /screenshot.
func (g *Gateway) handleScreenshot(req *transport.Request) *transport.Response {
	var params struct {
		Display *int           `json:"display"`
		Cursor  *bool          `json:"cursor"`
		Embed   *bool          `json:"embed"`
		Mode    string         `json:"mode"`
		MaxSize screen.MaxSize `json:"max_size"`
		OCR     bool           `json:"ocr"`
	}
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}

	c, err := g.engine.CaptureScreen(automation.CaptureOptions{
		Cursor:  params.Cursor,
		Embed:   params.Embed,
		Display: params.Display,
		Mode:    params.Mode,
		MaxSize: params.MaxSize,
		OCR:     params.OCR,
	})
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, captureEnvelope(c))
}

// handleWindowCapture serves POST /window/capture. The selector fields are
// flat alongside the capture options.
func (g *Gateway) handleWindowCapture(req *transport.Request) *transport.Response {
	var params struct {
		App     string         `json:"app"`
		Title   string         `json:"title"`
		ID      int            `json:"id"`
		PID     int            `json:"pid"`
		Cursor  *bool          `json:"cursor"`
		Embed   *bool          `json:"embed"`
		Mode    string         `json:"mode"`
		MaxSize screen.MaxSize `json:"max_size"`
		OCR     bool           `json:"ocr"`
	}
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}

	sel := automation.Selector{ID: params.ID, PID: params.PID, App: params.App, Title: params.Title}
	c, err := g.engine.CaptureWindow(sel, automation.CaptureOptions{
		Cursor:  params.Cursor,
		Embed:   params.Embed,
		Mode:    params.Mode,
		MaxSize: params.MaxSize,
		OCR:     params.OCR,
	})
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, captureEnvelope(c))
}

// handleBurst serves POST /burst.
func (g *Gateway) handleBurst(req *transport.Request) *transport.Response {
	var params struct {
		Frames     int            `json:"frames"`
		IntervalMS int            `json:"interval_ms"`
		Display    *int           `json:"display"`
		MaxSize    screen.MaxSize `json:"max_size"`
	}
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}

	b, err := g.engine.CaptureBurst(automation.BurstOptions{
		Frames:     params.Frames,
		IntervalMS: params.IntervalMS,
		Display:    params.Display,
		MaxSize:    params.MaxSize,
	})
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, burstBody{OK: true, Burst: b})
}

// handleCalibrate serves POST /calibrate.
func (g *Gateway) handleCalibrate(req *transport.Request) *transport.Response {
	var params struct {
		Guidance string `json:"guidance"`
		Display  *int   `json:"display"`
	}
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}

	cal, err := g.engine.Calibrate(params.Guidance, params.Display)
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, calibrationBody{OK: true, Calibration: cal})
}
