// Copyright 2025 Joseph Cumines
//
// Window listing route handler

package server

import "github.com/joeycumines/screenpilot/internal/transport"

// handleWindows serves GET /windows. The snapshot is taken fresh on every
// call; window layout is never cached.
func (g *Gateway) handleWindows(req *transport.Request) *transport.Response {
	wins, err := g.engine.ListWindows()
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, windowsBody{OK: true, Count: len(wins), Windows: wins})
}
