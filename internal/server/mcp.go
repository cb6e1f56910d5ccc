// Copyright 2025 Joseph Cumines
//
// JSON-RPC 2.0 endpoint implementing the MCP tools surface

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/joeycumines/screenpilot/internal/transport"
)

// supportedProtocolVersions lists the MCP revisions this server speaks,
// newest first. An initialize without a version gets the first entry.
var supportedProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// handleMCP serves POST /mcp: a single JSON-RPC 2.0 message or a batch.
// Protocol-level failures are JSON-RPC error objects under HTTP 200; the
// HTTP status only reflects transport concerns.
func (g *Gateway) handleMCP(req *transport.Request) *transport.Response {
	// DNS rebinding defense. A browser page on an attacker's domain can
	// reach 127.0.0.1, but it cannot forge its Origin header, so reject
	// anything that is not a local context before touching the body.
	if origin := req.Header("Origin"); !allowedOrigin(origin) {
		return errorJSON(403, "origin_forbidden", fmt.Sprintf("origin %q is not a local context", origin))
	}

	body := bytes.TrimSpace(req.Body)
	if len(body) > 0 && body[0] == '[' {
		return g.mcpBatch(body)
	}

	var msg transport.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return transport.JSONResponse(200, transport.NewError(nil, transport.ErrCodeParseError, "parse error: "+err.Error()))
	}
	resp := g.dispatchRPC(&msg)
	if resp == nil {
		return transport.Accepted()
	}
	return transport.JSONResponse(200, resp)
}

// mcpBatch handles a JSON-RPC batch. Elements are dispatched in order;
// notifications contribute no entries. A batch of only notifications has
// nothing to say, which per the MCP HTTP binding is a 202.
func (g *Gateway) mcpBatch(body []byte) *transport.Response {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return transport.JSONResponse(200, transport.NewError(nil, transport.ErrCodeParseError, "parse error: "+err.Error()))
	}
	if len(elems) == 0 {
		return transport.JSONResponse(200, transport.NewError(nil, transport.ErrCodeInvalidRequest, "empty batch"))
	}

	replies := make([]*transport.Message, 0, len(elems))
	for _, raw := range elems {
		var msg transport.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			replies = append(replies, transport.NewError(nil, transport.ErrCodeInvalidRequest, "invalid request: "+err.Error()))
			continue
		}
		if resp := g.dispatchRPC(&msg); resp != nil {
			replies = append(replies, resp)
		}
	}

	if len(replies) == 0 {
		return transport.Accepted()
	}
	return transport.JSONResponse(200, replies)
}

// dispatchRPC routes one JSON-RPC message. It returns nil when the message
// is a notification, which must never be answered.
func (g *Gateway) dispatchRPC(msg *transport.Message) *transport.Message {
	if msg.JSONRPC != "2.0" || msg.Method == "" {
		return transport.NewError(msg.ID, transport.ErrCodeInvalidRequest, "invalid request: expected a jsonrpc 2.0 request object")
	}

	var resp *transport.Message
	switch msg.Method {
	case "initialize":
		resp = g.rpcInitialize(msg)
	case "ping":
		resp = transport.NewResult(msg.ID, struct{}{})
	case "tools/list":
		resp = g.rpcToolsList(msg)
	case "tools/call":
		resp = g.rpcToolsCall(msg)
	case "resources/list":
		resp = transport.NewResult(msg.ID, map[string]any{"resources": []any{}})
	case "prompts/list":
		resp = transport.NewResult(msg.ID, map[string]any{"prompts": []any{}})
	default:
		// notifications/* methods are fire-and-forget, but only when sent
		// as actual notifications; an id still demands an answer.
		if msg.IsNotification() && strings.HasPrefix(msg.Method, "notifications/") {
			return nil
		}
		resp = transport.NewError(msg.ID, transport.ErrCodeMethodNotFound, "Method not found: "+msg.Method)
	}

	if msg.IsNotification() {
		return nil
	}
	return resp
}

// rpcInitialize negotiates the protocol version: echo the client's if this
// server speaks it, offer the newest otherwise absent, reject the rest.
func (g *Gateway) rpcInitialize(msg *transport.Message) *transport.Message {
	var params struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return transport.NewError(msg.ID, transport.ErrCodeInvalidParams, "invalid params: "+err.Error())
		}
	}

	version := supportedProtocolVersions[0]
	if params.ProtocolVersion != "" {
		supported := false
		for _, v := range supportedProtocolVersions {
			if v == params.ProtocolVersion {
				supported = true
				break
			}
		}
		if !supported {
			return transport.NewError(msg.ID, transport.ErrCodeInvalidParams,
				fmt.Sprintf("unsupported protocol version %q: supported versions are %s",
					params.ProtocolVersion, strings.Join(supportedProtocolVersions, ", ")))
		}
		version = params.ProtocolVersion
	}

	return transport.NewResult(msg.ID, map[string]any{
		"protocolVersion": version,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo":      map[string]any{"name": "screenpilot", "version": Version},
	})
}

func (g *Gateway) rpcToolsList(msg *transport.Message) *transport.Message {
	tools := make([]map[string]interface{}, 0, len(g.toolOrder))
	for _, name := range g.toolOrder {
		tool := g.tools[name]
		tools = append(tools, map[string]interface{}{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	return transport.NewResult(msg.ID, map[string]any{"tools": tools})
}

func (g *Gateway) rpcToolsCall(msg *transport.Message) *transport.Message {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return transport.NewError(msg.ID, transport.ErrCodeInvalidParams, "invalid params: "+err.Error())
	}

	tool, exists := g.tools[params.Name]
	if !exists {
		return transport.NewError(msg.ID, transport.ErrCodeMethodNotFound, "Tool not found: "+params.Name)
	}

	start := time.Now()
	result, err := tool.Handler(gjson.ParseBytes(params.Arguments))
	ok := err == nil && result != nil && !result.IsError

	if g.metrics != nil {
		g.metrics.RecordToolCall(tool.Name, ok)
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	g.audit.LogToolCall(tool.Name, params.Arguments, status, time.Since(start))

	if err != nil {
		return transport.NewError(msg.ID, transport.ErrCodeInternalError, err.Error())
	}
	return transport.NewResult(msg.ID, result)
}

// allowedOrigin reports whether an Origin header names a local context.
// Non-browser clients send no Origin at all; sandboxed local pages send
// the literal "null"; Electron-style shells send file URLs.
func allowedOrigin(origin string) bool {
	if origin == "" || origin == "null" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "file" {
		return true
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
