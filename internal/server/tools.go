// Copyright 2025 Joseph Cumines
//
// MCP tool table and handlers

package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/joeycumines/screenpilot/internal/automation"
	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/screen"
)

// Tool represents an MCP tool
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type Tool struct {
	Handler     func(args gjson.Result) (*ToolResult, error)
	InputSchema map[string]interface{}
	Name        string
	Description string
}

// ToolResult represents a tool call result
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content represents a content item in a tool result
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// errorResult creates a ToolResult with IsError=true and the given message.
// This reduces boilerplate for error responses across handlers.
func errorResult(msg string) *ToolResult {
	return &ToolResult{
		IsError: true,
		Content: []Content{{Type: "text", Text: msg}},
	}
}

// errorResultf creates a ToolResult with IsError=true and a formatted message.
func errorResultf(format string, args ...any) *ToolResult {
	return errorResult(fmt.Sprintf(format, args...))
}

// textResult creates a ToolResult with a single text content.
func textResult(text string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: text}},
	}
}

// jsonResult marshals v into a single text content so tool callers see the
// same envelope the REST routes return.
func jsonResult(v any) *ToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResultf("failed to encode result: %v", err)
	}
	return textResult(string(data))
}

// captureResult renders a capture as its metadata envelope plus, when the
// bitmap was embedded, a separate image content item.
func captureResult(c *automation.Capture) *ToolResult {
	res := jsonResult(captureBody{OK: true, Capture: c})
	if c.Embedded {
		res.Content = append(res.Content, Content{
			Type:     "image",
			Data:     base64.StdEncoding.EncodeToString(c.PNG),
			MimeType: "image/png",
		})
	}
	return res
}

// Tool arguments arrive from models that frequently quote numbers and
// booleans, so this boundary coerces instead of rejecting: gjson parses
// "960" as 960 and "true" as true. The REST routes stay strict.

func optFloat(args gjson.Result, key string) *float64 {
	v := args.Get(key)
	if !v.Exists() {
		return nil
	}
	f := v.Float()
	return &f
}

func optInt(args gjson.Result, key string) *int {
	v := args.Get(key)
	if !v.Exists() {
		return nil
	}
	n := int(v.Int())
	return &n
}

func optBool(args gjson.Result, key string) *bool {
	v := args.Get(key)
	if !v.Exists() {
		return nil
	}
	b := v.Bool()
	return &b
}

func toolSelector(args gjson.Result) automation.Selector {
	return automation.Selector{
		ID:    int(args.Get("id").Int()),
		PID:   int(args.Get("pid").Int()),
		App:   args.Get("app").String(),
		Title: args.Get("title").String(),
	}
}

func toolMaxSize(args gjson.Result) (screen.MaxSize, *ToolResult) {
	v := args.Get("max_size")
	if !v.Exists() {
		return screen.MaxSize{}, nil
	}
	ms, err := screen.ParseMaxSize(v.String())
	if err != nil {
		return screen.MaxSize{}, errorResult(err.Error())
	}
	return ms, nil
}

func toolCaptureOptions(args gjson.Result) (automation.CaptureOptions, *ToolResult) {
	ms, errRes := toolMaxSize(args)
	if errRes != nil {
		return automation.CaptureOptions{}, errRes
	}
	return automation.CaptureOptions{
		Cursor:  optBool(args, "cursor"),
		Embed:   optBool(args, "embed"),
		Display: optInt(args, "display"),
		Mode:    args.Get("mode").String(),
		MaxSize: ms,
		OCR:     args.Get("ocr").Bool(),
	}, nil
}

// toolWindowPoint resolves the optional window-relative point. One
// coordinate without the other is an error; neither means the window
// center.
func toolWindowPoint(args gjson.Result) (*screen.WindowPoint, *ToolResult) {
	x, y := args.Get("x"), args.Get("y")
	if x.Exists() != y.Exists() {
		return nil, errorResult("window point requires both x and y")
	}
	if !x.Exists() {
		return nil, nil
	}
	return &screen.WindowPoint{X: x.Float(), Y: y.Float()}, nil
}

func toolSpace(args gjson.Result) (automation.Space, *ToolResult) {
	space, err := automation.ParseSpace(args.Get("space").String())
	if err != nil {
		return "", errorResult(err.Error())
	}
	return space, nil
}

// registerTools builds the tool table. The slice fixes the order tools/list
// reports, so repeated listings always agree.
func (g *Gateway) registerTools() {
	tools := []*Tool{
		{
			Name:        "screenshot",
			Description: "Capture the screen as a PNG image with capture metadata (dimensions, scale factor, cursor position). Defaults to the main display with the cursor drawn in.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"display": map[string]interface{}{
						"type":        "integer",
						"description": "Display index to capture (0 is the main display)",
					},
					"cursor": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the cursor into the image (default true)",
					},
					"embed": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the PNG inline as an image content item (default true)",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"description": "Oversize handling: scale shrinks proportionally, crop trims around the cursor (default scale)",
						"enum":        []string{"scale", "crop"},
					},
					"max_size": map[string]interface{}{
						"type":        "string",
						"description": "Longest-edge ceiling in pixels, or one of: recommended, safe, full",
					},
					"ocr": map[string]interface{}{
						"type":        "boolean",
						"description": "Run text recognition over the capture when available",
					},
				},
			},
			Handler: g.toolScreenshot,
		},
		{
			Name:        "capture_window",
			Description: "Capture a single window as a PNG image. Identify the window by id, pid, app name substring, or title substring.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"app": map[string]interface{}{
						"type":        "string",
						"description": "Application name substring, case-insensitive",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Window title substring, case-insensitive",
					},
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Exact window id from list_windows",
					},
					"pid": map[string]interface{}{
						"type":        "integer",
						"description": "Owning process id",
					},
					"cursor": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the cursor into the image when it is over the window (default true)",
					},
					"embed": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the PNG inline as an image content item (default true)",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"description": "Oversize handling: crop trims around the cursor keeping exact pixels, scale shrinks proportionally (default crop)",
						"enum":        []string{"scale", "crop"},
					},
					"max_size": map[string]interface{}{
						"type":        "string",
						"description": "Longest-edge ceiling in pixels, or one of: recommended, safe, full",
					},
					"ocr": map[string]interface{}{
						"type":        "boolean",
						"description": "Run text recognition over the capture when available",
					},
				},
			},
			Handler: g.toolCaptureWindow,
		},
		{
			Name:        "burst_capture",
			Description: "Capture a rapid sequence of screenshots to disk and return their paths. Useful for observing animations or transient UI.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"frames": map[string]interface{}{
						"type":        "integer",
						"description": "Number of frames to capture",
					},
					"interval_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Delay between frames in milliseconds",
					},
					"display": map[string]interface{}{
						"type":        "integer",
						"description": "Display index to capture (0 is the main display)",
					},
					"max_size": map[string]interface{}{
						"type":        "string",
						"description": "Longest-edge ceiling in pixels, or one of: recommended, safe, full",
					},
				},
			},
			Handler: g.toolBurstCapture,
		},
		{
			Name:        "list_windows",
			Description: "List all on-screen windows front to back, with ids, owning apps, titles, bounds, and display index.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler: g.toolListWindows,
		},
		{
			Name:        "cursor_position",
			Description: "Report the current pointer location in screen points, top-left points, and capture pixels, plus the display it is on.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler: g.toolCursorPosition,
		},
		{
			Name:        "click",
			Description: "Move the pointer to (x, y) and click. Coordinates are screen points by default; pass space=pixels to use capture pixel coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Horizontal coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Vertical coordinate",
					},
					"space": map[string]interface{}{
						"type":        "string",
						"description": "Coordinate space of x and y (default screen)",
						"enum":        []string{"screen", "pixels"},
					},
					"button": map[string]interface{}{
						"type":        "string",
						"description": "Mouse button (default left)",
						"enum":        []string{"left", "right"},
					},
				},
				"required": []string{"x", "y"},
			},
			Handler: g.toolClick,
		},
		{
			Name:        "double_click",
			Description: "Move the pointer to (x, y) and double-click.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Horizontal coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Vertical coordinate",
					},
					"space": map[string]interface{}{
						"type":        "string",
						"description": "Coordinate space of x and y (default screen)",
						"enum":        []string{"screen", "pixels"},
					},
					"button": map[string]interface{}{
						"type":        "string",
						"description": "Mouse button (default left)",
						"enum":        []string{"left", "right"},
					},
				},
				"required": []string{"x", "y"},
			},
			Handler: g.toolDoubleClick,
		},
		{
			Name:        "right_click",
			Description: "Move the pointer to (x, y) and right-click.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Horizontal coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Vertical coordinate",
					},
					"space": map[string]interface{}{
						"type":        "string",
						"description": "Coordinate space of x and y (default screen)",
						"enum":        []string{"screen", "pixels"},
					},
				},
				"required": []string{"x", "y"},
			},
			Handler: g.toolRightClick,
		},
		{
			Name:        "move_mouse",
			Description: "Move the pointer to (x, y) without clicking.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Horizontal coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Vertical coordinate",
					},
					"space": map[string]interface{}{
						"type":        "string",
						"description": "Coordinate space of x and y (default screen)",
						"enum":        []string{"screen", "pixels"},
					},
				},
				"required": []string{"x", "y"},
			},
			Handler: g.toolMoveMouse,
		},
		{
			Name:        "scroll",
			Description: "Scroll by (dx, dy) wheel steps. Positive dy scrolls up. Optionally move the pointer to (x, y) first so the scroll lands on a specific surface.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dx": map[string]interface{}{
						"type":        "integer",
						"description": "Horizontal wheel steps",
					},
					"dy": map[string]interface{}{
						"type":        "integer",
						"description": "Vertical wheel steps",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Optional pointer position before scrolling",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Optional pointer position before scrolling",
					},
					"space": map[string]interface{}{
						"type":        "string",
						"description": "Coordinate space of x and y (default screen)",
						"enum":        []string{"screen", "pixels"},
					},
				},
			},
			Handler: g.toolScroll,
		},
		{
			Name:        "type_text",
			Description: "Type text as keyboard input into the focused element. Click a target first to focus it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to type",
					},
				},
				"required": []string{"text"},
			},
			Handler: g.toolTypeText,
		},
		{
			Name:        "move_to_window",
			Description: "Move the pointer to a point inside a window, defaulting to its center. Identify the window by id, pid, app, or title.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"app": map[string]interface{}{
						"type":        "string",
						"description": "Application name substring, case-insensitive",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Window title substring, case-insensitive",
					},
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Exact window id from list_windows",
					},
					"pid": map[string]interface{}{
						"type":        "integer",
						"description": "Owning process id",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Optional point relative to the window's top-left corner",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Optional point relative to the window's top-left corner",
					},
				},
			},
			Handler: g.toolMoveToWindow,
		},
		{
			Name:        "click_in_window",
			Description: "Click a point inside a window, defaulting to its center. Identify the window by id, pid, app, or title.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"app": map[string]interface{}{
						"type":        "string",
						"description": "Application name substring, case-insensitive",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Window title substring, case-insensitive",
					},
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Exact window id from list_windows",
					},
					"pid": map[string]interface{}{
						"type":        "integer",
						"description": "Owning process id",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Optional point relative to the window's top-left corner",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Optional point relative to the window's top-left corner",
					},
					"button": map[string]interface{}{
						"type":        "string",
						"description": "Mouse button (default left)",
						"enum":        []string{"left", "right"},
					},
					"double": map[string]interface{}{
						"type":        "boolean",
						"description": "Double-click instead of single",
					},
				},
			},
			Handler: g.toolClickInWindow,
		},
		{
			Name:        "scroll_in_window",
			Description: "Scroll with the pointer positioned inside a window, defaulting to its center.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"app": map[string]interface{}{
						"type":        "string",
						"description": "Application name substring, case-insensitive",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Window title substring, case-insensitive",
					},
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Exact window id from list_windows",
					},
					"pid": map[string]interface{}{
						"type":        "integer",
						"description": "Owning process id",
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Optional point relative to the window's top-left corner",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Optional point relative to the window's top-left corner",
					},
					"dx": map[string]interface{}{
						"type":        "integer",
						"description": "Horizontal wheel steps",
					},
					"dy": map[string]interface{}{
						"type":        "integer",
						"description": "Vertical wheel steps",
					},
				},
			},
			Handler: g.toolScrollInWindow,
		},
		{
			Name:        "calibrate",
			Description: "Verify coordinate mapping by capturing the screen and reporting the cursor position in every coordinate space. Use when clicks appear to land in the wrong place.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"guidance": map[string]interface{}{
						"type":        "string",
						"description": "Free-text note recorded with the calibration",
					},
					"display": map[string]interface{}{
						"type":        "integer",
						"description": "Display index to calibrate against (0 is the main display)",
					},
				},
			},
			Handler: g.toolCalibrate,
		},
		{
			Name:        "get_clipboard",
			Description: "Get text from clipboard",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler: g.toolGetClipboard,
		},
		{
			Name:        "set_clipboard",
			Description: "Replace the clipboard's text contents",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to place on the clipboard",
					},
				},
				"required": []string{"text"},
			},
			Handler: g.toolSetClipboard,
		},
	}

	g.tools = make(map[string]*Tool, len(tools))
	g.toolOrder = make([]string, 0, len(tools))
	for _, t := range tools {
		g.tools[t.Name] = t
		g.toolOrder = append(g.toolOrder, t.Name)
	}
}

func (g *Gateway) toolScreenshot(args gjson.Result) (*ToolResult, error) {
	opts, errRes := toolCaptureOptions(args)
	if errRes != nil {
		return errRes, nil
	}
	c, err := g.engine.CaptureScreen(opts)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return captureResult(c), nil
}

func (g *Gateway) toolCaptureWindow(args gjson.Result) (*ToolResult, error) {
	opts, errRes := toolCaptureOptions(args)
	if errRes != nil {
		return errRes, nil
	}
	c, err := g.engine.CaptureWindow(toolSelector(args), opts)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return captureResult(c), nil
}

func (g *Gateway) toolBurstCapture(args gjson.Result) (*ToolResult, error) {
	ms, errRes := toolMaxSize(args)
	if errRes != nil {
		return errRes, nil
	}
	b, err := g.engine.CaptureBurst(automation.BurstOptions{
		Frames:     int(args.Get("frames").Int()),
		IntervalMS: int(args.Get("interval_ms").Int()),
		Display:    optInt(args, "display"),
		MaxSize:    ms,
	})
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(burstBody{OK: true, Burst: b}), nil
}

func (g *Gateway) toolListWindows(args gjson.Result) (*ToolResult, error) {
	wins, err := g.engine.ListWindows()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(windowsBody{OK: true, Count: len(wins), Windows: wins}), nil
}

func (g *Gateway) toolCursorPosition(args gjson.Result) (*ToolResult, error) {
	info, err := g.engine.CursorPosition()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(cursorBody{OK: true, CursorInfo: info}), nil
}

func (g *Gateway) toolClick(args gjson.Result) (*ToolResult, error) {
	return g.clickTool(args, "", false)
}

func (g *Gateway) toolDoubleClick(args gjson.Result) (*ToolResult, error) {
	return g.clickTool(args, "", true)
}

func (g *Gateway) toolRightClick(args gjson.Result) (*ToolResult, error) {
	return g.clickTool(args, osauto.ButtonRight, false)
}

func (g *Gateway) clickTool(args gjson.Result, forced osauto.Button, double bool) (*ToolResult, error) {
	x, y := args.Get("x"), args.Get("y")
	if !x.Exists() || !y.Exists() {
		return errorResult("x and y are required"), nil
	}
	space, errRes := toolSpace(args)
	if errRes != nil {
		return errRes, nil
	}
	btn := forced
	if btn == "" {
		var err error
		btn, err = automation.ParseButton(args.Get("button").String())
		if err != nil {
			return errorResult(err.Error()), nil
		}
	}

	p, err := g.engine.Click(x.Float(), y.Float(), space, btn, double)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(pointEnvelope(p)), nil
}

func (g *Gateway) toolMoveMouse(args gjson.Result) (*ToolResult, error) {
	x, y := args.Get("x"), args.Get("y")
	if !x.Exists() || !y.Exists() {
		return errorResult("x and y are required"), nil
	}
	space, errRes := toolSpace(args)
	if errRes != nil {
		return errRes, nil
	}

	p, err := g.engine.MoveMouse(x.Float(), y.Float(), space)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(pointEnvelope(p)), nil
}

func (g *Gateway) toolScroll(args gjson.Result) (*ToolResult, error) {
	space, errRes := toolSpace(args)
	if errRes != nil {
		return errRes, nil
	}

	err := g.engine.Scroll(
		int(args.Get("dx").Int()),
		int(args.Get("dy").Int()),
		optFloat(args, "x"),
		optFloat(args, "y"),
		space,
	)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]bool{"ok": true}), nil
}

func (g *Gateway) toolTypeText(args gjson.Result) (*ToolResult, error) {
	n, err := g.engine.TypeText(args.Get("text").String())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"ok": true, "typed": n}), nil
}

func (g *Gateway) toolMoveToWindow(args gjson.Result) (*ToolResult, error) {
	at, errRes := toolWindowPoint(args)
	if errRes != nil {
		return errRes, nil
	}
	win, p, err := g.engine.MoveToWindow(toolSelector(args), at)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(windowPointBody{OK: true, Window: win, X: p.X, Y: p.Y}), nil
}

func (g *Gateway) toolClickInWindow(args gjson.Result) (*ToolResult, error) {
	at, errRes := toolWindowPoint(args)
	if errRes != nil {
		return errRes, nil
	}
	btn, err := automation.ParseButton(args.Get("button").String())
	if err != nil {
		return errorResult(err.Error()), nil
	}

	win, p, err := g.engine.ClickInWindow(toolSelector(args), at, btn, args.Get("double").Bool())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(windowPointBody{OK: true, Window: win, X: p.X, Y: p.Y}), nil
}

func (g *Gateway) toolScrollInWindow(args gjson.Result) (*ToolResult, error) {
	at, errRes := toolWindowPoint(args)
	if errRes != nil {
		return errRes, nil
	}
	win, err := g.engine.ScrollInWindow(
		toolSelector(args), at,
		int(args.Get("dx").Int()),
		int(args.Get("dy").Int()),
	)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"ok": true, "window": win}), nil
}

func (g *Gateway) toolCalibrate(args gjson.Result) (*ToolResult, error) {
	cal, err := g.engine.Calibrate(args.Get("guidance").String(), optInt(args, "display"))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(calibrationBody{OK: true, Calibration: cal}), nil
}

func (g *Gateway) toolGetClipboard(args gjson.Result) (*ToolResult, error) {
	text, err := g.engine.ReadClipboard()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"ok": true, "text": text}), nil
}

func (g *Gateway) toolSetClipboard(args gjson.Result) (*ToolResult, error) {
	text := args.Get("text").String()
	if err := g.engine.WriteClipboard(text); err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"ok": true, "length": len(text)}), nil
}
