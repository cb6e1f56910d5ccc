// Copyright 2025 Joseph Cumines
//
// JSON-RPC endpoint tests

package server

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/joeycumines/screenpilot/internal/transport"
)

// mcpCall posts a raw JSON-RPC payload to the gateway.
func mcpCall(fix *gatewayFixture, payload string) *transport.Response {
	return fix.gw.route(request("POST", "/mcp", payload))
}

// rpcReply decodes a single JSON-RPC response.
func rpcReply(t *testing.T, resp *transport.Response) *transport.Message {
	t.Helper()
	if resp.Status != 200 {
		t.Fatalf("HTTP status = %d, want 200: %s", resp.Status, resp.Body)
	}
	var msg transport.Message
	if err := json.Unmarshal(resp.Body, &msg); err != nil {
		t.Fatalf("unmarshal rpc response %q: %v", resp.Body, err)
	}
	return &msg
}

func TestMCPInitialize(t *testing.T) {
	fix := newFixture(t)

	tests := []struct {
		name        string
		params      string
		wantVersion string
		wantErrCode int
	}{
		{
			name:        "version omitted gets newest",
			params:      `{}`,
			wantVersion: "2025-06-18",
		},
		{
			name:        "supported version echoed",
			params:      `{"protocolVersion":"2024-11-05"}`,
			wantVersion: "2024-11-05",
		},
		{
			name:        "middle version echoed",
			params:      `{"protocolVersion":"2025-03-26"}`,
			wantVersion: "2025-03-26",
		},
		{
			name:        "unsupported version rejected",
			params:      `{"protocolVersion":"1999-01-01"}`,
			wantErrCode: transport.ErrCodeInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":`+tt.params+`}`))

			if tt.wantErrCode != 0 {
				if msg.Error == nil || msg.Error.Code != tt.wantErrCode {
					t.Fatalf("error = %+v, want code %d", msg.Error, tt.wantErrCode)
				}
				return
			}
			if msg.Error != nil {
				t.Fatalf("unexpected error: %+v", msg.Error)
			}

			var result struct {
				ProtocolVersion string `json:"protocolVersion"`
				Capabilities    struct {
					Tools *struct{} `json:"tools"`
				} `json:"capabilities"`
				ServerInfo struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"serverInfo"`
			}
			if err := json.Unmarshal(msg.Result, &result); err != nil {
				t.Fatalf("unmarshal result: %v", err)
			}
			if result.ProtocolVersion != tt.wantVersion {
				t.Errorf("protocolVersion = %q, want %q", result.ProtocolVersion, tt.wantVersion)
			}
			if result.Capabilities.Tools == nil {
				t.Error("capabilities.tools missing")
			}
			if result.ServerInfo.Name != "screenpilot" || result.ServerInfo.Version != Version {
				t.Errorf("serverInfo = %+v, want screenpilot %s", result.ServerInfo, Version)
			}
		})
	}
}

func TestMCPPing(t *testing.T) {
	fix := newFixture(t)

	msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":"p1","method":"ping"}`))
	if msg.Error != nil {
		t.Fatalf("unexpected error: %+v", msg.Error)
	}
	if string(msg.ID) != `"p1"` {
		t.Errorf("id = %s, want \"p1\"", msg.ID)
	}
	if string(msg.Result) != "{}" {
		t.Errorf("result = %s, want {}", msg.Result)
	}
}

func TestMCPToolsListStable(t *testing.T) {
	fix := newFixture(t)

	list := func() []string {
		msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
		if msg.Error != nil {
			t.Fatalf("unexpected error: %+v", msg.Error)
		}
		var result struct {
			Tools []struct {
				Name        string         `json:"name"`
				Description string         `json:"description"`
				InputSchema map[string]any `json:"inputSchema"`
			} `json:"tools"`
		}
		if err := json.Unmarshal(msg.Result, &result); err != nil {
			t.Fatalf("unmarshal result: %v", err)
		}
		names := make([]string, 0, len(result.Tools))
		for _, tool := range result.Tools {
			if tool.Description == "" {
				t.Errorf("tool %q has no description", tool.Name)
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("tool %q schema type = %v, want object", tool.Name, tool.InputSchema["type"])
			}
			names = append(names, tool.Name)
		}
		return names
	}

	first := list()
	if len(first) != 17 {
		t.Fatalf("tools listed = %d, want 17: %v", len(first), first)
	}
	for _, want := range []string{"screenshot", "click", "type_text", "list_windows", "set_clipboard"} {
		found := false
		for _, name := range first {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("tool %q missing from listing", want)
		}
	}

	second := list()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("listing order changed between calls:\n%v\n%v", first, second)
		}
	}
}

func TestMCPToolCallCoercesStringArguments(t *testing.T) {
	fix := newFixture(t)

	msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"click","arguments":{"x":"960","y":"100"}}}`))
	if msg.Error != nil {
		t.Fatalf("unexpected error: %+v", msg.Error)
	}

	var result ToolResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.IsError {
		t.Fatalf("isError = true: %+v", result.Content)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("content = %+v, want one text item", result.Content)
	}

	var body pointBody
	if err := json.Unmarshal([]byte(result.Content[0].Text), &body); err != nil {
		t.Fatalf("unmarshal text payload: %v", err)
	}
	if body.X != 960 || body.Y != 980 {
		t.Errorf("landed at (%g, %g), want (960, 980)", body.X, body.Y)
	}
	if len(fix.input.clicks) != 1 {
		t.Errorf("clicks = %d, want 1", len(fix.input.clicks))
	}

	var metrics strings.Builder
	if err := fix.metrics.WritePrometheus(&metrics); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	if !strings.Contains(metrics.String(), `screenpilot_tool_calls_total{tool="click",status="ok"} 1`) {
		t.Errorf("tool call not counted:\n%s", metrics.String())
	}
}

func TestMCPToolCallScreenshotReturnsImageContent(t *testing.T) {
	fix := newFixture(t)

	msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"screenshot","arguments":{}}}`))
	if msg.Error != nil {
		t.Fatalf("unexpected error: %+v", msg.Error)
	}

	var result ToolResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result.Content) != 2 {
		t.Fatalf("content items = %d, want text plus image", len(result.Content))
	}
	if result.Content[0].Type != "text" {
		t.Errorf("content[0].type = %q, want text", result.Content[0].Type)
	}
	img := result.Content[1]
	if img.Type != "image" || img.MimeType != "image/png" || img.Data == "" {
		t.Errorf("content[1] = {type:%q mimeType:%q data len %d}, want base64 png image", img.Type, img.MimeType, len(img.Data))
	}
}

func TestMCPToolCallUnknownTool(t *testing.T) {
	fix := newFixture(t)

	msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"launch_missiles","arguments":{}}}`))
	if msg.Error == nil || msg.Error.Code != transport.ErrCodeMethodNotFound {
		t.Fatalf("error = %+v, want code %d", msg.Error, transport.ErrCodeMethodNotFound)
	}
}

func TestMCPToolCallFailureIsResultNotError(t *testing.T) {
	fix := newFixture(t)

	// A window that cannot be resolved is a tool-level failure: the RPC
	// succeeds and the result carries isError.
	msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"click_in_window","arguments":{"title":"zzz"}}}`))
	if msg.Error != nil {
		t.Fatalf("unexpected protocol error: %+v", msg.Error)
	}

	var result ToolResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !result.IsError {
		t.Fatal("isError = false, want true")
	}
	if len(result.Content) == 0 || !strings.Contains(result.Content[0].Text, "window not found") {
		t.Errorf("content = %+v, want window-not-found text", result.Content)
	}

	var metrics strings.Builder
	if err := fix.metrics.WritePrometheus(&metrics); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	if !strings.Contains(metrics.String(), `screenpilot_tool_calls_total{tool="click_in_window",status="error"} 1`) {
		t.Errorf("failed tool call not counted:\n%s", metrics.String())
	}
}

func TestMCPBatchMixed(t *testing.T) {
	fix := newFixture(t)

	// One notification (no id) and one call: the response array carries
	// only the call's reply, and the notification still executes.
	payload := `[
		{"jsonrpc":"2.0","method":"tools/call","params":{"name":"click","arguments":{"x":1,"y":1}}},
		{"jsonrpc":"2.0","id":9,"method":"ping"}
	]`
	resp := mcpCall(fix, payload)
	if resp.Status != 200 {
		t.Fatalf("HTTP status = %d, want 200: %s", resp.Status, resp.Body)
	}

	var replies []transport.Message
	if err := json.Unmarshal(resp.Body, &replies); err != nil {
		t.Fatalf("unmarshal batch response %q: %v", resp.Body, err)
	}
	if len(replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(replies))
	}
	if string(replies[0].ID) != "9" {
		t.Errorf("reply id = %s, want 9", replies[0].ID)
	}
	if len(fix.input.clicks) != 1 {
		t.Errorf("notification click not executed: clicks = %d, want 1", len(fix.input.clicks))
	}
}

func TestMCPBatchAllNotifications(t *testing.T) {
	fix := newFixture(t)

	payload := `[
		{"jsonrpc":"2.0","method":"notifications/initialized"},
		{"jsonrpc":"2.0","method":"tools/call","params":{"name":"move_mouse","arguments":{"x":5,"y":5}}}
	]`
	resp := mcpCall(fix, payload)
	if resp.Status != 202 {
		t.Fatalf("HTTP status = %d, want 202", resp.Status)
	}
	if len(resp.Body) != 0 {
		t.Errorf("body = %q, want empty", resp.Body)
	}
	if len(fix.input.moves) != 1 {
		t.Errorf("notification move not executed: moves = %d, want 1", len(fix.input.moves))
	}
}

func TestMCPBatchEmpty(t *testing.T) {
	fix := newFixture(t)

	msg := rpcReply(t, mcpCall(fix, `[]`))
	if msg.Error == nil || msg.Error.Code != transport.ErrCodeInvalidRequest {
		t.Fatalf("error = %+v, want code %d", msg.Error, transport.ErrCodeInvalidRequest)
	}
}

func TestMCPBatchMalformedElement(t *testing.T) {
	fix := newFixture(t)

	resp := mcpCall(fix, `["not a request", {"jsonrpc":"2.0","id":1,"method":"ping"}]`)
	var replies []transport.Message
	if err := json.Unmarshal(resp.Body, &replies); err != nil {
		t.Fatalf("unmarshal batch response %q: %v", resp.Body, err)
	}
	if len(replies) != 2 {
		t.Fatalf("replies = %d, want 2", len(replies))
	}
	if replies[0].Error == nil || replies[0].Error.Code != transport.ErrCodeInvalidRequest {
		t.Errorf("first reply = %+v, want invalid request error", replies[0].Error)
	}
	if string(replies[0].ID) != "null" {
		t.Errorf("first reply id = %s, want null", replies[0].ID)
	}
	if replies[1].Error != nil {
		t.Errorf("second reply error = %+v, want success", replies[1].Error)
	}
}

func TestMCPParseError(t *testing.T) {
	fix := newFixture(t)

	msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":`))
	if msg.Error == nil || msg.Error.Code != transport.ErrCodeParseError {
		t.Fatalf("error = %+v, want code %d", msg.Error, transport.ErrCodeParseError)
	}
	if string(msg.ID) != "null" {
		t.Errorf("id = %s, want null", msg.ID)
	}
}

func TestMCPInvalidRequestObject(t *testing.T) {
	fix := newFixture(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"wrong jsonrpc version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`},
		{"missing method", `{"jsonrpc":"2.0","id":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := rpcReply(t, mcpCall(fix, tt.payload))
			if msg.Error == nil || msg.Error.Code != transport.ErrCodeInvalidRequest {
				t.Fatalf("error = %+v, want code %d", msg.Error, transport.ErrCodeInvalidRequest)
			}
		})
	}
}

func TestMCPUnknownMethod(t *testing.T) {
	fix := newFixture(t)

	msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":1,"method":"resources/read"}`))
	if msg.Error == nil || msg.Error.Code != transport.ErrCodeMethodNotFound {
		t.Fatalf("error = %+v, want code %d", msg.Error, transport.ErrCodeMethodNotFound)
	}
}

func TestMCPEmptyListings(t *testing.T) {
	fix := newFixture(t)

	for _, method := range []string{"resources/list", "prompts/list"} {
		msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":1,"method":"`+method+`"}`))
		if msg.Error != nil {
			t.Errorf("%s: unexpected error %+v", method, msg.Error)
		}
	}
}

func TestMCPSingleNotification(t *testing.T) {
	fix := newFixture(t)

	resp := mcpCall(fix, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if resp.Status != 202 {
		t.Fatalf("HTTP status = %d, want 202", resp.Status)
	}
	if len(resp.Body) != 0 {
		t.Errorf("body = %q, want empty", resp.Body)
	}
}

func TestMCPRequestWithNotificationMethodIsAnswered(t *testing.T) {
	fix := newFixture(t)

	// An id turns "notifications/..." into an ordinary request; nothing
	// serves it, so the caller gets method-not-found rather than silence.
	msg := rpcReply(t, mcpCall(fix, `{"jsonrpc":"2.0","id":11,"method":"notifications/initialized"}`))
	if msg.Error == nil || msg.Error.Code != transport.ErrCodeMethodNotFound {
		t.Fatalf("error = %+v, want method-not-found", msg.Error)
	}
	if string(msg.ID) != "11" {
		t.Errorf("reply id = %s, want 11", msg.ID)
	}
}

func TestMCPOriginGate(t *testing.T) {
	fix := newFixture(t)

	// The gate runs before any body parsing: a forbidden origin with an
	// unparseable body must yield 403, not a parse error.
	req := request("POST", "/mcp", `{"jsonrpc":`)
	req.Headers["origin"] = "https://evil.example"
	resp := fix.gw.route(req)
	if resp.Status != 403 {
		t.Fatalf("status = %d, want 403", resp.Status)
	}
	if tag := errorTag(t, resp); tag != "origin_forbidden" {
		t.Errorf("error tag = %q, want %q", tag, "origin_forbidden")
	}

	allowed := request("POST", "/mcp", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	allowed.Headers["origin"] = "http://localhost:5173"
	if resp := fix.gw.route(allowed); resp.Status != 200 {
		t.Errorf("localhost origin: status = %d, want 200", resp.Status)
	}
}

func TestAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"null", true},
		{"http://localhost", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:8000", true},
		{"http://[::1]:4477", true},
		{"file:///Users/me/agent.html", true},
		{"https://evil.example", false},
		{"http://192.168.1.5", false},
		{"http://localhost.evil.example", false},
	}

	for _, tt := range tests {
		if got := allowedOrigin(tt.origin); got != tt.want {
			t.Errorf("allowedOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
