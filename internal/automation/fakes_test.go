// Copyright 2025 Joseph Cumines

package automation

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/screen"
)

// fakeScreen serves captures sized bounds*scale, emulating a display whose
// backing store is denser than its point grid.
type fakeScreen struct {
	displays []screen.Bounds
	scale    float64
	err      error
	failAt   map[int]bool
	calls    int
}

func (f *fakeScreen) NumDisplays() int                  { return len(f.displays) }
func (f *fakeScreen) DisplayBounds(i int) screen.Bounds { return f.displays[i] }

func (f *fakeScreen) Capture(b screen.Bounds) (*image.RGBA, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failAt[f.calls] {
		return nil, errors.New("transient capture failure")
	}
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

// fakeInput records injected events. Move updates the reported cursor
// position, like the real pointer.
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

type fakeScaler struct {
	scale float64
}

func (f *fakeScaler) BackingScale(int) float64 { return f.scale }

type fakeOCR struct {
	boxes []screen.TextBox
	err   error
}

func (f *fakeOCR) Recognize(image.Image) ([]screen.TextBox, error) { return f.boxes, f.err }

type fakePerms struct {
	capture bool
	inject  bool
}

func (f *fakePerms) CanCapture() bool     { return f.capture }
func (f *fakePerms) CanInject() bool      { return f.inject }
func (f *fakePerms) RequestCapture() bool { return f.capture }
func (f *fakePerms) RequestInject() bool  { return f.inject }

// testEngine builds an engine over fakes with timing stubbed out and
// artifacts stored under the test's temp dir.
func testEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()
	if deps.Artifacts == nil {
		store, err := NewArtifactStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewArtifactStore: %v", err)
		}
		deps.Artifacts = store
	}
	e := New(deps)
	e.sleep = func(time.Duration) {}
	return e
}

// singleDisplay is an 800x600-point primary display at a 2x backing scale.
func singleDisplay() *fakeScreen {
	return &fakeScreen{
		displays: []screen.Bounds{{X: 0, Y: 0, W: 800, H: 600}},
		scale:    2,
	}
}
