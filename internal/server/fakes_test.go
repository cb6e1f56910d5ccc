// Copyright 2025 Joseph Cumines

package server

import (
	"encoding/json"
	"image"
	"math"
	"testing"

	"github.com/joeycumines/screenpilot/internal/automation"
	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/screen"
	"github.com/joeycumines/screenpilot/internal/transport"
)

// testToken is the bearer token every test gateway accepts.
const testToken = "test-token"

type fakeScreen struct {
	displays []screen.Bounds
	scale    float64
}

func (f *fakeScreen) NumDisplays() int                  { return len(f.displays) }
func (f *fakeScreen) DisplayBounds(i int) screen.Bounds { return f.displays[i] }

func (f *fakeScreen) Capture(b screen.Bounds) (*image.RGBA, error) {
	s := f.scale
	if s == 0 {
		s = 1
	}
	w := int(math.Round(b.W * s))
	h := int(math.Round(b.H * s))
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

type clickEvent struct {
	btn    osauto.Button
	double bool
}

type fakeInput struct {
	pos     screen.TopLeftPoint
	moves   []screen.TopLeftPoint
	clicks  []clickEvent
	scrolls [][2]int
	typed   []string
}

func (f *fakeInput) Move(p screen.TopLeftPoint) {
	f.pos = p
	f.moves = append(f.moves, p)
}

func (f *fakeInput) Click(btn osauto.Button, double bool) {
	f.clicks = append(f.clicks, clickEvent{btn: btn, double: double})
}

func (f *fakeInput) Scroll(dx, dy int) {
	f.scrolls = append(f.scrolls, [2]int{dx, dy})
}

func (f *fakeInput) TypeText(s string) int {
	f.typed = append(f.typed, s)
	return len([]rune(s))
}

func (f *fakeInput) CursorPos() screen.TopLeftPoint { return f.pos }

type fakeWindows struct {
	wins []osauto.Window
	err  error
}

func (f *fakeWindows) List() ([]osauto.Window, error) { return f.wins, f.err }

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) Read() (string, error) { return f.text, f.err }

func (f *fakeClipboard) Write(s string) error {
	if f.err != nil {
		return f.err
	}
	f.text = s
	return nil
}

type fakePerms struct {
	capture bool
	inject  bool
}

func (f *fakePerms) CanCapture() bool     { return f.capture }
func (f *fakePerms) CanInject() bool      { return f.inject }
func (f *fakePerms) RequestCapture() bool { return f.capture }
func (f *fakePerms) RequestInject() bool  { return f.inject }

// gatewayFixture bundles a gateway with the fakes behind it so tests can
// assert on injected events.
type gatewayFixture struct {
	gw        *Gateway
	screenSrc *fakeScreen
	input     *fakeInput
	windows   *fakeWindows
	clipboard *fakeClipboard
	metrics   *transport.MetricsRegistry
}

// newFixture builds a gateway over a single 1920x1080 display at 1x with
// one Finder window and full permissions.
func newFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	scr := &fakeScreen{
		displays: []screen.Bounds{{X: 0, Y: 0, W: 1920, H: 1080}},
		scale:    1,
	}
	in := &fakeInput{}
	wins := &fakeWindows{wins: []osauto.Window{
		{ID: 101, PID: 50, App: "Finder", Title: "Documents", Bounds: screen.Bounds{X: 100, Y: 100, W: 800, H: 600}},
		{ID: 102, PID: 60, App: "Safari", Title: "screenpilot docs", Bounds: screen.Bounds{X: 200, Y: 150, W: 1024, H: 768}},
	}}
	clip := &fakeClipboard{text: "hello"}

	store, err := automation.NewArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifactStore: %v", err)
	}

	engine := automation.New(automation.Deps{
		Screen:    scr,
		Input:     in,
		Windows:   wins,
		Clipboard: clip,
		Perms:     &fakePerms{capture: true, inject: true},
		Artifacts: store,
	})

	metrics := transport.NewMetricsRegistry()
	gw := NewGateway(Options{
		Engine:  engine,
		Tokens:  NewTokenStore(testToken),
		Metrics: metrics,
	})

	return &gatewayFixture{
		gw:        gw,
		screenSrc: scr,
		input:     in,
		windows:   wins,
		clipboard: clip,
		metrics:   metrics,
	}
}

// request builds an authenticated request the way the transport layer
// would deliver it.
func request(method, path string, body any) *transport.Request {
	req := &transport.Request{
		Method:  method,
		Path:    path,
		Proto:   "HTTP/1.1",
		Headers: map[string]string{"authorization": "Bearer " + testToken},
	}
	switch b := body.(type) {
	case nil:
	case string:
		req.Body = []byte(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			panic(err)
		}
		req.Body = data
	}
	return req
}

// anonRequest builds a request with no credentials.
func anonRequest(method, path string) *transport.Request {
	return &transport.Request{Method: method, Path: path, Proto: "HTTP/1.1", Headers: map[string]string{}}
}

// decodeBody unmarshals a JSON response body into v.
func decodeBody(t *testing.T, resp *transport.Response, v any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body, v); err != nil {
		t.Fatalf("unmarshal response body %q: %v", resp.Body, err)
	}
}

// errorTag extracts the stable error tag from an error response body.
func errorTag(t *testing.T, resp *transport.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	return body.Error
}
