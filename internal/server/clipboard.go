// Copyright 2025 Joseph Cumines
//
// Clipboard route handlers

package server

import "github.com/joeycumines/screenpilot/internal/transport"

// handleClipboardRead serves GET /clipboard.
func (g *Gateway) handleClipboardRead(req *transport.Request) *transport.Response {
	text, err := g.engine.ReadClipboard()
	if err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, map[string]any{"ok": true, "text": text})
}

// handleClipboardWrite serves POST /clipboard. An empty text clears the
// clipboard.
func (g *Gateway) handleClipboardWrite(req *transport.Request) *transport.Response {
	var params struct {
		Text string `json:"text"`
	}
	if err := req.DecodeJSON(&params); err != nil {
		return errorJSON(400, "bad_request", err.Error())
	}

	if err := g.engine.WriteClipboard(params.Text); err != nil {
		return errorResponse(err)
	}
	return transport.JSONResponse(200, map[string]any{"ok": true, "length": len(params.Text)})
}
