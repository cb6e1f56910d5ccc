// Copyright 2025 Joseph Cumines
//
// Gateway router and auth gate

// Package server exposes the automation engine over two protocol surfaces:
// a REST-like JSON API and a JSON-RPC 2.0 tools endpoint. Both dispatch
// through one Gateway so neither surface can reach behavior the other
// cannot.
package server

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/joeycumines/screenpilot/internal/automation"
	"github.com/joeycumines/screenpilot/internal/transport"
)

// Version is reported by /health and the MCP serverInfo block.
const Version = "0.1.0"

// TokenStore holds the active bearer token. Rotation swaps the value
// atomically; in-flight requests that already passed the gate finish under
// the old token, subsequent requests see the new one.
type TokenStore struct {
	v atomic.Value
}

// NewTokenStore returns a store holding tok.
func NewTokenStore(tok string) *TokenStore {
	s := &TokenStore{}
	s.v.Store(tok)
	return s
}

// Get returns the active token.
func (s *TokenStore) Get() string {
	tok, _ := s.v.Load().(string)
	return tok
}

// Set replaces the active token, invalidating the previous value for all
// subsequent requests.
func (s *TokenStore) Set(tok string) {
	s.v.Store(tok)
}

// Options wires a Gateway's collaborators. Engine and Tokens are required;
// Metrics and Audit may be nil.
type Options struct {
	Engine  *automation.Engine
	Tokens  *TokenStore
	Metrics *transport.MetricsRegistry
	Audit   *AuditLogger
}

// Gateway routes authenticated requests to the engine. It is stateless per
// request; the token store and the engine own all shared state.
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type Gateway struct {
	engine  *automation.Engine
	tokens  *TokenStore
	metrics *transport.MetricsRegistry
	audit   *AuditLogger

	routes    map[string]handlerFunc
	knownPath map[string]bool
	tools     map[string]*Tool
	toolOrder []string

	started time.Time
}

type handlerFunc func(*transport.Request) *transport.Response

// NewGateway builds the route and tool tables over the given engine.
func NewGateway(opts Options) *Gateway {
	g := &Gateway{
		engine:  opts.Engine,
		tokens:  opts.Tokens,
		metrics: opts.Metrics,
		audit:   opts.Audit,
		started: time.Now(),
	}
	g.registerRoutes()
	g.registerTools()
	return g
}

// Handler adapts the gateway to the transport server.
func (g *Gateway) Handler() transport.Handler {
	return g.route
}

func (g *Gateway) registerRoutes() {
	g.routes = map[string]handlerFunc{
		"GET /health":          g.handleHealth,
		"GET /cursor":          g.handleCursor,
		"POST /screenshot":     g.handleScreenshot,
		"GET /windows":         g.handleWindows,
		"POST /window/capture": g.handleWindowCapture,
		"POST /click":          g.handleClick,
		"POST /doubleclick":    g.handleDoubleClick,
		"POST /rightclick":     g.handleRightClick,
		"POST /move":           g.handleMove,
		"POST /scroll":         g.handleScroll,
		"POST /type":           g.handleType,
		"POST /window/move":    g.handleWindowMove,
		"POST /window/click":   g.handleWindowClick,
		"POST /window/scroll":  g.handleWindowScroll,
		"POST /burst":          g.handleBurst,
		"POST /calibrate":      g.handleCalibrate,
		"GET /clipboard":       g.handleClipboardRead,
		"POST /clipboard":      g.handleClipboardWrite,
		"GET /metrics":         g.handleMetrics,
		"GET /debug":           g.handleDebugPage,
		"GET /debug/image":     g.handleDebugImage,
		"GET /debug/meta":      g.handleDebugMeta,
		"POST /mcp":            g.handleMCP,
	}
	g.knownPath = make(map[string]bool, len(g.routes))
	for key := range g.routes {
		_, path, _ := strings.Cut(key, " ")
		g.knownPath[path] = true
	}
}

// route is the single entry point for every parsed request: preflight,
// then auth, then exact (method, path) dispatch.
func (g *Gateway) route(req *transport.Request) *transport.Response {
	// Preflight probes carry no credentials by definition.
	if req.Method == "OPTIONS" {
		return transport.NoContent()
	}

	path := req.PathOnly()
	if !g.authorized(req, path) {
		return errorJSON(401, "unauthorized", "")
	}

	handler, ok := g.routes[req.Method+" "+path]
	if !ok {
		if g.knownPath[path] {
			return errorJSON(405, "method_not_allowed", "")
		}
		return errorJSON(404, "not_found", "")
	}

	start := time.Now()
	resp := handler(req)
	g.audit.LogOp(req.Method+" "+path, req.Body, resp.Status, time.Since(start))
	return resp
}

// authorized checks the bearer token. The token query parameter is honored
// only on the debug-viewer routes, which a browser loads without headers.
// Comparison is plain equality, not constant-time; see DESIGN.md.
func (g *Gateway) authorized(req *transport.Request, path string) bool {
	want := g.tokens.Get()
	if want == "" {
		return false
	}
	if tok := req.BearerToken(); tok == want {
		return true
	}
	if path == "/debug" || strings.HasPrefix(path, "/debug/") {
		if tok := req.QueryValue("token"); tok == want {
			return true
		}
	}
	return false
}

func (g *Gateway) handleHealth(req *transport.Request) *transport.Response {
	return transport.JSONResponse(200, map[string]any{
		"status":         "ok",
		"version":        Version,
		"uptime_seconds": int64(time.Since(g.started).Seconds()),
	})
}

func (g *Gateway) handleMetrics(req *transport.Request) *transport.Response {
	var b strings.Builder
	if g.metrics != nil {
		if err := g.metrics.WritePrometheus(&b); err != nil {
			return errorJSON(500, "internal_error", err.Error())
		}
	}
	return &transport.Response{
		Status:  200,
		Headers: map[string]string{"Content-Type": "text/plain; version=0.0.4; charset=utf-8"},
		Body:    []byte(b.String()),
	}
}
