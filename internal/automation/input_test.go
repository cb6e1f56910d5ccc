// Copyright 2025 Joseph Cumines

package automation

import (
	"errors"
	"testing"

	"github.com/joeycumines/screenpilot/internal/osauto"
	"github.com/joeycumines/screenpilot/internal/screen"
)

func TestParseSpace(t *testing.T) {
	tests := []struct {
		in      string
		want    Space
		wantErr bool
	}{
		{in: "", want: SpaceScreen},
		{in: "screen", want: SpaceScreen},
		{in: " Pixels ", want: SpacePixels},
		{in: "window", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSpace(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrBadRequest) {
				t.Errorf("ParseSpace(%q) error = %v, want ErrBadRequest", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSpace(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseButton(t *testing.T) {
	tests := []struct {
		in      string
		want    osauto.Button
		wantErr bool
	}{
		{in: "", want: osauto.ButtonLeft},
		{in: "left", want: osauto.ButtonLeft},
		{in: "RIGHT", want: osauto.ButtonRight},
		{in: "middle", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseButton(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrBadRequest) {
				t.Errorf("ParseButton(%q) error = %v, want ErrBadRequest", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseButton(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseButton(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClickScreenSpace(t *testing.T) {
	in := &fakeInput{}
	e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{}})

	// Screen points are bottom-left-origin: y=100 on a 600-point display
	// is 500 points from the top.
	p, err := e.Click(100, 100, SpaceScreen, osauto.ButtonLeft, false)
	if err != nil {
		t.Fatalf("Click: %v", err)
	}
	want := screen.TopLeftPoint{X: 100, Y: 500}
	if p != want {
		t.Errorf("Click returned %+v, want %+v", p, want)
	}
	if len(in.moves) != 1 || in.moves[0] != want {
		t.Errorf("moves = %+v, want single move to %+v", in.moves, want)
	}
	if len(in.clicks) != 1 || in.clicks[0] != (clickEvent{btn: osauto.ButtonLeft}) {
		t.Errorf("clicks = %+v, want single left click", in.clicks)
	}
}

func TestClickVariants(t *testing.T) {
	in := &fakeInput{}
	e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{}})

	if _, err := e.Click(10, 10, SpaceScreen, osauto.ButtonRight, false); err != nil {
		t.Fatalf("right click: %v", err)
	}
	if _, err := e.Click(10, 10, SpaceScreen, osauto.ButtonLeft, true); err != nil {
		t.Fatalf("double click: %v", err)
	}
	want := []clickEvent{
		{btn: osauto.ButtonRight},
		{btn: osauto.ButtonLeft, double: true},
	}
	if len(in.clicks) != 2 || in.clicks[0] != want[0] || in.clicks[1] != want[1] {
		t.Errorf("clicks = %+v, want %+v", in.clicks, want)
	}
}

func TestClickPixelSpace(t *testing.T) {
	in := &fakeInput{}
	e := testEngine(t, Deps{
		Screen:  singleDisplay(),
		Input:   in,
		Windows: &fakeWindows{},
		Scaler:  &fakeScaler{scale: 2},
	})

	// Pixel (200, 300) at a 2x scale is point (100, 150) from the top-left.
	p, err := e.Click(200, 300, SpacePixels, osauto.ButtonLeft, false)
	if err != nil {
		t.Fatalf("Click: %v", err)
	}
	want := screen.TopLeftPoint{X: 100, Y: 150}
	if p != want {
		t.Errorf("Click returned %+v, want %+v", p, want)
	}
}

func TestInputDenied(t *testing.T) {
	in := &fakeInput{}
	e := testEngine(t, Deps{
		Screen:  singleDisplay(),
		Input:   in,
		Windows: &fakeWindows{wins: []osauto.Window{{ID: 1, Bounds: screen.Bounds{W: 100, H: 100}}}},
		Perms:   &fakePerms{capture: true, inject: false},
	})

	if _, err := e.Click(1, 1, SpaceScreen, osauto.ButtonLeft, false); !errors.Is(err, ErrInputDenied) {
		t.Errorf("Click error = %v, want ErrInputDenied", err)
	}
	if _, err := e.MoveMouse(1, 1, SpaceScreen); !errors.Is(err, ErrInputDenied) {
		t.Errorf("MoveMouse error = %v, want ErrInputDenied", err)
	}
	if err := e.Scroll(0, 1, nil, nil, SpaceScreen); !errors.Is(err, ErrInputDenied) {
		t.Errorf("Scroll error = %v, want ErrInputDenied", err)
	}
	if _, err := e.TypeText("hi"); !errors.Is(err, ErrInputDenied) {
		t.Errorf("TypeText error = %v, want ErrInputDenied", err)
	}
	if _, _, err := e.ClickInWindow(Selector{ID: 1}, nil, osauto.ButtonLeft, false); !errors.Is(err, ErrInputDenied) {
		t.Errorf("ClickInWindow error = %v, want ErrInputDenied", err)
	}
	if _, _, err := e.MoveToWindow(Selector{ID: 1}, nil); !errors.Is(err, ErrInputDenied) {
		t.Errorf("MoveToWindow error = %v, want ErrInputDenied", err)
	}
	if _, err := e.ScrollInWindow(Selector{ID: 1}, nil, 0, 1); !errors.Is(err, ErrInputDenied) {
		t.Errorf("ScrollInWindow error = %v, want ErrInputDenied", err)
	}
	if len(in.moves)+len(in.clicks)+len(in.scrolls)+len(in.typed) != 0 {
		t.Error("denied operations still injected events")
	}
}

func TestMoveMouse(t *testing.T) {
	in := &fakeInput{}
	e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{}})

	p, err := e.MoveMouse(5, 10, SpaceScreen)
	if err != nil {
		t.Fatalf("MoveMouse: %v", err)
	}
	want := screen.TopLeftPoint{X: 5, Y: 590}
	if p != want {
		t.Errorf("MoveMouse returned %+v, want %+v", p, want)
	}
	if len(in.clicks) != 0 {
		t.Errorf("clicks = %+v, want none", in.clicks)
	}
}

func TestScroll(t *testing.T) {
	t.Run("in place", func(t *testing.T) {
		in := &fakeInput{}
		e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{}})
		if err := e.Scroll(0, -5, nil, nil, SpaceScreen); err != nil {
			t.Fatalf("Scroll: %v", err)
		}
		if len(in.moves) != 0 {
			t.Errorf("moves = %+v, want none without a position", in.moves)
		}
		if len(in.scrolls) != 1 || in.scrolls[0] != [2]int{0, -5} {
			t.Errorf("scrolls = %+v, want [[0 -5]]", in.scrolls)
		}
	})

	t.Run("positioned", func(t *testing.T) {
		in := &fakeInput{}
		e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{}})
		x, y := 400.0, 300.0
		if err := e.Scroll(1, 2, &x, &y, SpaceScreen); err != nil {
			t.Fatalf("Scroll: %v", err)
		}
		want := screen.TopLeftPoint{X: 400, Y: 300}
		if len(in.moves) != 1 || in.moves[0] != want {
			t.Errorf("moves = %+v, want move to %+v before scrolling", in.moves, want)
		}
		if len(in.scrolls) != 1 || in.scrolls[0] != [2]int{1, 2} {
			t.Errorf("scrolls = %+v, want [[1 2]]", in.scrolls)
		}
	})

	t.Run("half a position is rejected", func(t *testing.T) {
		e := testEngine(t, Deps{Screen: singleDisplay(), Input: &fakeInput{}, Windows: &fakeWindows{}})
		x := 400.0
		if err := e.Scroll(1, 2, &x, nil, SpaceScreen); !errors.Is(err, ErrBadRequest) {
			t.Errorf("Scroll error = %v, want ErrBadRequest", err)
		}
	})
}

func TestTypeText(t *testing.T) {
	in := &fakeInput{}
	e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{}})

	n, err := e.TypeText("héllo")
	if err != nil {
		t.Fatalf("TypeText: %v", err)
	}
	if n != 5 {
		t.Errorf("TypeText = %d runes, want 5", n)
	}
	if len(in.typed) != 1 || in.typed[0] != "héllo" {
		t.Errorf("typed = %+v, want the literal text", in.typed)
	}

	if _, err := e.TypeText(""); !errors.Is(err, ErrBadRequest) {
		t.Errorf("TypeText(\"\") error = %v, want ErrBadRequest", err)
	}
}

func TestClickInWindowDefaultsToCenter(t *testing.T) {
	win := osauto.Window{
		App: "TextEdit", Title: "notes.txt", ID: 7, PID: 300,
		Bounds: screen.Bounds{X: 100, Y: 100, W: 300, H: 200},
	}
	in := &fakeInput{}
	e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{wins: []osauto.Window{win}}})

	got, p, err := e.ClickInWindow(Selector{Title: "notes"}, nil, osauto.ButtonLeft, false)
	if err != nil {
		t.Fatalf("ClickInWindow: %v", err)
	}
	if got.ID != 7 {
		t.Errorf("window ID = %d, want 7", got.ID)
	}
	want := screen.TopLeftPoint{X: 250, Y: 200}
	if p != want {
		t.Errorf("click point = %+v, want window center %+v", p, want)
	}
	if len(in.moves) != 1 || in.moves[0] != want {
		t.Errorf("moves = %+v, want single move to the center", in.moves)
	}
	if len(in.clicks) != 1 {
		t.Errorf("clicks = %+v, want one", in.clicks)
	}
}

func TestMoveToWindowExplicitPoint(t *testing.T) {
	win := osauto.Window{ID: 7, Bounds: screen.Bounds{X: 100, Y: 100, W: 300, H: 200}}
	in := &fakeInput{}
	e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{wins: []osauto.Window{win}}})

	at := screen.WindowPoint{X: 10, Y: 20}
	_, p, err := e.MoveToWindow(Selector{ID: 7}, &at)
	if err != nil {
		t.Fatalf("MoveToWindow: %v", err)
	}
	want := screen.TopLeftPoint{X: 110, Y: 120}
	if p != want {
		t.Errorf("point = %+v, want %+v", p, want)
	}
}

func TestScrollInWindow(t *testing.T) {
	win := osauto.Window{ID: 7, Bounds: screen.Bounds{X: 100, Y: 100, W: 300, H: 200}}
	in := &fakeInput{}
	e := testEngine(t, Deps{Screen: singleDisplay(), Input: in, Windows: &fakeWindows{wins: []osauto.Window{win}}})

	got, err := e.ScrollInWindow(Selector{ID: 7}, nil, 0, 3)
	if err != nil {
		t.Fatalf("ScrollInWindow: %v", err)
	}
	if got.ID != 7 {
		t.Errorf("window ID = %d, want 7", got.ID)
	}
	center := screen.TopLeftPoint{X: 250, Y: 200}
	if len(in.moves) != 1 || in.moves[0] != center {
		t.Errorf("moves = %+v, want move to center %+v", in.moves, center)
	}
	if len(in.scrolls) != 1 || in.scrolls[0] != [2]int{0, 3} {
		t.Errorf("scrolls = %+v, want [[0 3]]", in.scrolls)
	}
}

func TestWindowInputSelectorErrors(t *testing.T) {
	e := testEngine(t, Deps{Screen: singleDisplay(), Input: &fakeInput{}, Windows: &fakeWindows{}})

	if _, _, err := e.ClickInWindow(Selector{}, nil, osauto.ButtonLeft, false); !errors.Is(err, ErrBadRequest) {
		t.Errorf("empty selector error = %v, want ErrBadRequest", err)
	}
	if _, _, err := e.ClickInWindow(Selector{Title: "missing"}, nil, osauto.ButtonLeft, false); !errors.Is(err, ErrWindowNotFound) {
		t.Errorf("unmatched selector error = %v, want ErrWindowNotFound", err)
	}
}

func TestCursorPosition(t *testing.T) {
	in := &fakeInput{pos: screen.TopLeftPoint{X: 150, Y: 100}}
	e := testEngine(t, Deps{
		Screen:  singleDisplay(),
		Input:   in,
		Windows: &fakeWindows{},
		Scaler:  &fakeScaler{scale: 2},
	})

	info, err := e.CursorPosition()
	if err != nil {
		t.Fatalf("CursorPosition: %v", err)
	}
	if want := (screen.Point{X: 150, Y: 500}); info.Screen != want {
		t.Errorf("Screen = %+v, want %+v", info.Screen, want)
	}
	if want := (screen.TopLeftPoint{X: 150, Y: 100}); info.TopLeft != want {
		t.Errorf("TopLeft = %+v, want %+v", info.TopLeft, want)
	}
	if want := (screen.Pixel{X: 300, Y: 200}); info.Pixel != want {
		t.Errorf("Pixel = %+v, want %+v", info.Pixel, want)
	}
	if info.Display.Index != 0 || info.Display.Scale != 2 {
		t.Errorf("Display = %+v, want index 0 at scale 2", info.Display)
	}
}
