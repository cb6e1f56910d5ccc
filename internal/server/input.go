// Copyright 2025 Joseph Cumines
//
// Pointer and keyboard route handlers

package server

import (
	"github.com/joeycumines/screenpilot/internal/automation"
	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/screen"
	"github.com/joeycumines/screenpilot/internal/transport"
)

// pointerParams is the shared request shape of the global pointer routes.
// X and Y are required; Space defaults to screen points; Button defaults
// to left where the route leaves it open.
type pointerParams struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Space  string   `json:"space"`
	Button string   `json:"button"`
}

func decodePointer(req *transport.Request) (pointerParams, automation.Space, *transport.Response) {
	var params pointerParams
	if err := req.DecodeJSON(&params); err != nil {
		return params, "", errorJSON(400, "bad_request", err.Error())
	}
	if params.X == nil || params.Y == nil {
		return params, "", errorJSON(400, "bad_request", "x and y are required")
	}
	space, err := automation.ParseSpace(params.Space)
	if err != nil {
		return params, "", errorResponse(err)
	}
	return params, space, nil
}

// handleCursor serves GET /cursor.
func (g *Gateway) handleCursor(req *transport.Request) *transport.Response {
	info, err := g.engine.CursorPosition()
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, cursorBody{OK: true, CursorInfo: info})
}

// handleClick serves POST /click.
func (g *Gateway) handleClick(req *transport.Request) *transport.Response {
	return g.clickRoute(req, "", false)
}

// handleDoubleClick serves POST /doubleclick.
func (g *Gateway) handleDoubleClick(req *transport.Request) *transport.Response {
	return g.clickRoute(req, "", true)
}

// handleRightClick serves POST /rightclick. The button is fixed; a button
// field in the body is ignored.
func (g *Gateway) handleRightClick(req *transport.Request) *transport.Response {
	return g.clickRoute(req, osauto.ButtonRight, false)
}

func (g *Gateway) clickRoute(req *transport.Request, forced osauto.Button, double bool) *transport.Response {
	params, space, errResp := decodePointer(req)
	if errResp != nil {
		return errResp
	}
	btn := forced
	if btn == "" {
		var err error
		btn, err = automation.ParseButton(params.Button)
		if err != nil {
			return errorResponse(err)
		}
	}

	p, err := g.engine.Click(*params.X, *params.Y, space, btn, double)
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, pointEnvelope(p))
}

// handleMove serves POST /move.
func (g *Gateway) handleMove(req *transport.Request) *transport.Response {
	params, space, errResp := decodePointer(req)
	if errResp != nil {
		return errResp
	}
	p, err := g.engine.MoveMouse(*params.X, *params.Y, space)
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, pointEnvelope(p))
}

// handleScroll serves POST /scroll. Position is optional; when given the
// pointer moves there before the wheel event fires.
func (g *Gateway) handleScroll(req *transport.Request) *transport.Response {
	var params struct {
		DX    int      `json:"dx"`
		DY    int      `json:"dy"`
		X     *float64 `json:"x"`
		Y     *float64 `json:"y"`
		Space string   `json:"space"`
	}
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}
	space, err := automation.ParseSpace(params.Space)
	if err != nil {
		return errorResponse(err)
	}

	if err := g.engine.Scroll(params.DX, params.DY, params.X, params.Y, space); err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, map[string]bool{"ok": true})
}

// handleType serves POST /type.
func (g *Gateway) handleType(req *transport.Request) *transport.Response {
	var params struct {
		Text string `json:"text"`
	}
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}

	n, err := g.engine.TypeText(params.Text)
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, map[string]any{"ok": true, "typed": n})
}

// windowOpParams is the shared request shape of the window-relative
// routes: a flat selector plus an optional window-relative point.
type windowOpParams struct {
	App    string   `json:"app"`
	Title  string   `json:"title"`
	ID     int      `json:"id"`
	PID    int      `json:"pid"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Button string   `json:"button"`
	Double bool     `json:"double"`
	DX     int      `json:"dx"`
	DY     int      `json:"dy"`
}

func (p windowOpParams) selector() automation.Selector {
	return automation.Selector{ID: p.ID, PID: p.PID, App: p.App, Title: p.Title}
}

// at resolves the optional window-relative point. Supplying one coordinate
// without the other is a validation error; supplying neither defaults to
// the window center downstream.
func (p windowOpParams) at() (*screen.WindowPoint, *transport.Response) {
	if (p.X == nil) != (p.Y == nil) {
		return nil, errorJSON(400, "bad_request", "window point requires both x and y")
	}
	if p.X == nil {
		return nil, nil
	}
	return &screen.WindowPoint{X: *p.X, Y: *p.Y}, nil
}

// handleWindowMove serves POST /window/move.
func (g *Gateway) handleWindowMove(req *transport.Request) *transport.Response {
	var params windowOpParams
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}
	at, errResp := params.at()
	if errResp != nil {
		return errResp
	}

	win, p, err := g.engine.MoveToWindow(params.selector(), at)
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, windowPointBody{OK: true, Window: win, X: p.X, Y: p.Y})
}

// handleWindowClick serves POST /window/click.
func (g *Gateway) handleWindowClick(req *transport.Request) *transport.Response {
	var params windowOpParams
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}
	at, errResp := params.at()
	if errResp != nil {
		return errResp
	}
	btn, err := automation.ParseButton(params.Button)
	if err != nil {
		return errorResponse(err)
	}

	win, p, err := g.engine.ClickInWindow(params.selector(), at, btn, params.Double)
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, windowPointBody{OK: true, Window: win, X: p.X, Y: p.Y})
}

// handleWindowScroll serves POST /window/scroll.
func (g *Gateway) handleWindowScroll(req *transport.Request) *transport.Response {
	var params windowOpParams
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}
	at, errResp := params.at()
	if errResp != nil {
		return errResp
	}

	win, err := g.engine.ScrollInWindow(params.selector(), at, params.DX, params.DY)
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, map[string]any{"ok": true, "window": win})
}
