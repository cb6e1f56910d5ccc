// Copyright 2025 Joseph Cumines
//
// screenpilot - command-line client for a running screenpilotd

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"

	"github.com/joeycumines/screenpilot/internal/transport"
)

const usage = `Usage: screenpilot [flags] <command> [args]

A client for a running screenpilotd. Global flags go before the command.

Global flags:
      --addr string        daemon address (default "127.0.0.1:4477")
      --token string       bearer token (default $SCREENPILOT_TOKEN)
      --timeout duration   request timeout (default 30s)

Commands:
  health                     daemon liveness and version
  cursor                     cursor position in every coordinate space
  windows                    list on-screen windows
  screenshot                 capture the screen  [--display N] [--max-size S]
                             [--mode M] [--no-cursor] [--ocr] [--out FILE]
  window-capture             capture one window  [selector] [capture flags]
  click X Y                  [--button left|right] [--double] [--space S]
  move X Y                   [--space S]
  scroll DX DY               [--at-x X --at-y Y] [--space S]
  type TEXT...               type text into the focused app
  window-move                [selector] [--x X --y Y]
  window-click               [selector] [--x X --y Y] [--button B] [--double]
  window-scroll              [selector] --dx N --dy N [--x X --y Y]
  burst                      [--frames N] [--interval MS] [--display N] [--max-size S]
  calibrate                  [--guidance TEXT] [--display N]
  clipboard [TEXT...]        read the clipboard, or write when TEXT is given
  metrics                    Prometheus metrics text
  rpc METHOD [PARAMS-JSON]   raw JSON-RPC call against /mcp

Selector flags: --app NAME  --title SUBSTRING  --id N  --pid N
Spaces: screen (bottom-left points, the default), pixels.
Negative coordinates need a -- separator: screenpilot scroll -- 0 -3
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := pflag.NewFlagSet("screenpilot", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	addr := global.String("addr", "127.0.0.1:4477", "daemon address")
	token := global.String("token", "", "bearer token")
	timeout := global.Duration("timeout", 30*time.Second, "request timeout")
	if err := global.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("no command given")
	}
	if *token == "" {
		*token = os.Getenv("SCREENPILOT_TOKEN")
	}
	c := &client{addr: *addr, token: *token, timeout: *timeout}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "health":
		return c.printJSON("GET", "/health", nil)
	case "cursor":
		return c.printJSON("GET", "/cursor", nil)
	case "windows":
		return c.printJSON("GET", "/windows", nil)
	case "metrics":
		return c.printRaw("GET", "/metrics")
	case "screenshot":
		return cmdScreenshot(c, cmdArgs)
	case "window-capture":
		return cmdWindowCapture(c, cmdArgs)
	case "click":
		return cmdClick(c, cmdArgs)
	case "move":
		return cmdMove(c, cmdArgs)
	case "scroll":
		return cmdScroll(c, cmdArgs)
	case "type":
		return cmdType(c, cmdArgs)
	case "window-move", "window-click", "window-scroll":
		return cmdWindowOp(c, cmd, cmdArgs)
	case "burst":
		return cmdBurst(c, cmdArgs)
	case "calibrate":
		return cmdCalibrate(c, cmdArgs)
	case "clipboard":
		return cmdClipboard(c, cmdArgs)
	case "rpc":
		return cmdRPC(c, cmdArgs)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// client issues one-shot requests against the daemon's wire protocol.
type client struct {
	addr    string
	token   string
	timeout time.Duration
}

func (c *client) do(method, path string, body any) (*transport.ClientResponse, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}
	headers := make(map[string]string, 2)
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}
	if len(payload) > 0 {
		headers["Content-Type"] = "application/json"
	}
	return transport.Do(c.addr, c.timeout, method, path, headers, payload)
}

// printJSON performs the request and pretty-prints the response body. A
// status of 400 or above still prints the body (it carries the error tag)
// and then fails.
func (c *client) printJSON(method, path string, body any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	out := resp.Body
	var buf bytes.Buffer
	if json.Indent(&buf, resp.Body, "", "  ") == nil {
		out = buf.Bytes()
	}
	fmt.Printf("%s\n", bytes.TrimSpace(out))
	if resp.Status >= 400 {
		return fmt.Errorf("daemon returned %d", resp.Status)
	}
	return nil
}

func (c *client) printRaw(method, path string) error {
	resp, err := c.do(method, path, nil)
	if err != nil {
		return err
	}
	os.Stdout.Write(resp.Body)
	if resp.Status >= 400 {
		return fmt.Errorf("daemon returned %d", resp.Status)
	}
	return nil
}

// parseFlags parses subcommand flags. ok is false when help was requested,
// which is not an error.
func parseFlags(fs *pflag.FlagSet, args []string) (ok bool, err error) {
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// captureFlags registers the options shared by every capture command and
// returns a builder that folds the set ones into the request body.
func captureFlags(fs *pflag.FlagSet) func(map[string]any) {
	display := fs.Int("display", 0, "display index")
	maxSize := fs.String("max-size", "", "max dimension in pixels, or recommended/safe/full")
	mode := fs.String("mode", "", "capture mode")
	noCursor := fs.Bool("no-cursor", false, "skip the cursor crosshair overlay")
	ocr := fs.Bool("ocr", false, "run text recognition on the capture")
	return func(body map[string]any) {
		if fs.Changed("display") {
			body["display"] = *display
		}
		if *maxSize != "" {
			body["max_size"] = *maxSize
		}
		if *mode != "" {
			body["mode"] = *mode
		}
		if *noCursor {
			body["cursor"] = false
		}
		if *ocr {
			body["ocr"] = true
		}
	}
}

// selectorFlags registers window selector options and returns a builder.
func selectorFlags(fs *pflag.FlagSet) func(map[string]any) {
	app := fs.String("app", "", "application name substring")
	title := fs.String("title", "", "window title substring")
	id := fs.Int("id", 0, "window id")
	pid := fs.Int("pid", 0, "owning process id")
	return func(body map[string]any) {
		if *app != "" {
			body["app"] = *app
		}
		if *title != "" {
			body["title"] = *title
		}
		if *id != 0 {
			body["id"] = *id
		}
		if *pid != 0 {
			body["pid"] = *pid
		}
	}
}

// writeCapture handles --out: the embedded PNG is decoded from the JSON
// envelope and written to disk, and a one-line summary replaces the dump.
func (c *client) writeCapture(path string, body map[string]any, out string) error {
	if out == "" {
		// Without a destination the base64 dump is omitted; the daemon
		// still writes its own artifact and reports the path.
		body["embed"] = false
		return c.printJSON("POST", path, body)
	}

	resp, err := c.do("POST", path, body)
	if err != nil {
		return err
	}
	if resp.Status >= 400 {
		fmt.Printf("%s\n", bytes.TrimSpace(resp.Body))
		return fmt.Errorf("daemon returned %d", resp.Status)
	}
	parsed := gjson.ParseBytes(resp.Body)
	img := parsed.Get("image").String()
	if img == "" {
		return fmt.Errorf("response carried no embedded image")
	}
	data, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		return fmt.Errorf("decode embedded image: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %dx%d png to %s\n", parsed.Get("width").Int(), parsed.Get("height").Int(), out)
	return nil
}

func cmdScreenshot(c *client, args []string) error {
	fs := pflag.NewFlagSet("screenshot", pflag.ContinueOnError)
	capture := captureFlags(fs)
	out := fs.String("out", "", "write the PNG to this file")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	body := map[string]any{}
	capture(body)
	return c.writeCapture("/screenshot", body, *out)
}

func cmdWindowCapture(c *client, args []string) error {
	fs := pflag.NewFlagSet("window-capture", pflag.ContinueOnError)
	selector := selectorFlags(fs)
	capture := captureFlags(fs)
	out := fs.String("out", "", "write the PNG to this file")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	body := map[string]any{}
	selector(body)
	capture(body)
	return c.writeCapture("/window/capture", body, *out)
}

func cmdClick(c *client, args []string) error {
	fs := pflag.NewFlagSet("click", pflag.ContinueOnError)
	button := fs.String("button", "", "mouse button (left, right)")
	double := fs.Bool("double", false, "double-click")
	space := fs.String("space", "", "coordinate space")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	x, y, err := positionalPoint(fs.Args())
	if err != nil {
		return err
	}

	path := "/click"
	if *double {
		path = "/doubleclick"
	} else if *button == "right" {
		path = "/rightclick"
	}
	body := map[string]any{"x": x, "y": y}
	if *space != "" {
		body["space"] = *space
	}
	if path == "/click" && *button != "" {
		body["button"] = *button
	}
	return c.printJSON("POST", path, body)
}

func cmdMove(c *client, args []string) error {
	fs := pflag.NewFlagSet("move", pflag.ContinueOnError)
	space := fs.String("space", "", "coordinate space")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	x, y, err := positionalPoint(fs.Args())
	if err != nil {
		return err
	}
	body := map[string]any{"x": x, "y": y}
	if *space != "" {
		body["space"] = *space
	}
	return c.printJSON("POST", "/move", body)
}

func cmdScroll(c *client, args []string) error {
	fs := pflag.NewFlagSet("scroll", pflag.ContinueOnError)
	atX := fs.Float64("at-x", 0, "move here before scrolling")
	atY := fs.Float64("at-y", 0, "move here before scrolling")
	space := fs.String("space", "", "coordinate space")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: screenpilot scroll DX DY")
	}
	dx, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("dx %q is not an integer", rest[0])
	}
	dy, err := strconv.Atoi(rest[1])
	if err != nil {
		return fmt.Errorf("dy %q is not an integer", rest[1])
	}

	body := map[string]any{"dx": dx, "dy": dy}
	if fs.Changed("at-x") || fs.Changed("at-y") {
		body["x"] = *atX
		body["y"] = *atY
	}
	if *space != "" {
		body["space"] = *space
	}
	return c.printJSON("POST", "/scroll", body)
}

func cmdType(c *client, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		return fmt.Errorf("usage: screenpilot type TEXT")
	}
	return c.printJSON("POST", "/type", map[string]any{"text": text})
}

func cmdWindowOp(c *client, cmd string, args []string) error {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	selector := selectorFlags(fs)
	x := fs.Float64("x", 0, "window-relative x in points")
	y := fs.Float64("y", 0, "window-relative y in points")
	button := fs.String("button", "", "mouse button (left, right)")
	double := fs.Bool("double", false, "double-click")
	dx := fs.Int("dx", 0, "horizontal scroll lines")
	dy := fs.Int("dy", 0, "vertical scroll lines")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	body := map[string]any{}
	selector(body)
	if fs.Changed("x") || fs.Changed("y") {
		body["x"] = *x
		body["y"] = *y
	}

	var path string
	switch cmd {
	case "window-move":
		path = "/window/move"
	case "window-click":
		path = "/window/click"
		if *button != "" {
			body["button"] = *button
		}
		if *double {
			body["double"] = true
		}
	case "window-scroll":
		path = "/window/scroll"
		body["dx"] = *dx
		body["dy"] = *dy
	}
	return c.printJSON("POST", path, body)
}

func cmdBurst(c *client, args []string) error {
	fs := pflag.NewFlagSet("burst", pflag.ContinueOnError)
	frames := fs.Int("frames", 5, "number of frames")
	interval := fs.Int("interval", 200, "milliseconds between frames")
	display := fs.Int("display", 0, "display index")
	maxSize := fs.String("max-size", "", "max dimension in pixels, or recommended/safe/full")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	body := map[string]any{"frames": *frames, "interval_ms": *interval}
	if fs.Changed("display") {
		body["display"] = *display
	}
	if *maxSize != "" {
		body["max_size"] = *maxSize
	}
	return c.printJSON("POST", "/burst", body)
}

func cmdCalibrate(c *client, args []string) error {
	fs := pflag.NewFlagSet("calibrate", pflag.ContinueOnError)
	guidance := fs.String("guidance", "", "what the agent is trying to do")
	display := fs.Int("display", 0, "display index")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	body := map[string]any{}
	if *guidance != "" {
		body["guidance"] = *guidance
	}
	if fs.Changed("display") {
		body["display"] = *display
	}
	return c.printJSON("POST", "/calibrate", body)
}

func cmdClipboard(c *client, args []string) error {
	if len(args) == 0 {
		return c.printJSON("GET", "/clipboard", nil)
	}
	return c.printJSON("POST", "/clipboard", map[string]any{"text": strings.Join(args, " ")})
}

func cmdRPC(c *client, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: screenpilot rpc METHOD [PARAMS-JSON]")
	}
	msg := map[string]any{"jsonrpc": "2.0", "id": 1, "method": args[0]}
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params %q is not valid JSON", args[1])
		}
		msg["params"] = json.RawMessage(args[1])
	}
	return c.printJSON("POST", "/mcp", msg)
}

func positionalPoint(args []string) (x, y float64, err error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected two coordinates, got %d args", len(args))
	}
	if x, err = strconv.ParseFloat(args[0], 64); err != nil {
		return 0, 0, fmt.Errorf("x %q is not a number", args[0])
	}
	if y, err = strconv.ParseFloat(args[1], 64); err != nil {
		return 0, 0, fmt.Errorf("y %q is not a number", args[1])
	}
	return x, y, nil
}
