// Copyright 2025 Joseph Cumines
//
// Input, window, clipboard, and scale backends over go-vgo/robotgo

package osauto

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-vgo/robotgo"

	"github.com/joeycumines/screenpilot/internal/screen"
)

// RobotInput injects events through robotgo. The zero value is ready to
// use.
type RobotInput struct{}

var _ Input = RobotInput{}

// Move places the cursor at p.
func (RobotInput) Move(p screen.TopLeftPoint) {
	robotgo.Move(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Click presses the given button at the current cursor position.
func (RobotInput) Click(btn Button, double bool) {
	robotgo.Click(string(btn), double)
}

// Scroll scrolls by dx columns and dy rows at the current cursor position.
// Positive dy scrolls up, matching scroll-wheel convention.
func (RobotInput) Scroll(dx, dy int) {
	robotgo.Scroll(dx, dy)
}

// TypeText types s as keyboard input and returns the number of runes sent.
func (RobotInput) TypeText(s string) int {
	robotgo.TypeStr(s)
	return len([]rune(s))
}

// CursorPos returns the cursor location in top-left global points.
func (RobotInput) CursorPos() screen.TopLeftPoint {
	x, y := robotgo.Location()
	return screen.TopLeftPoint{X: float64(x), Y: float64(y)}
}

// RobotWindows enumerates windows through robotgo's process listing. The
// zero value is ready to use.
type RobotWindows struct{}

var _ Windows = RobotWindows{}

// List returns one descriptor per process with an on-screen window.
// robotgo exposes the frontmost window of each process, so the descriptor
// id doubles as the pid.
func (RobotWindows) List() ([]Window, error) {
	procs, err := robotgo.Process()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	wins := make([]Window, 0, len(procs))
	for _, p := range procs {
		x, y, w, h := robotgo.GetBounds(p.Pid)
		if w <= 0 || h <= 0 {
			continue
		}
		title := strings.TrimSpace(robotgo.GetTitle(p.Pid))
		wins = append(wins, Window{
			ID:    int(p.Pid),
			PID:   int(p.Pid),
			App:   p.Name,
			Title: title,
			Bounds: screen.Bounds{
				X: float64(x),
				Y: float64(y),
				W: float64(w),
				H: float64(h),
			},
		})
	}
	return wins, nil
}

// RobotClipboard is the system clipboard. The zero value is ready to use.
type RobotClipboard struct{}

var _ Clipboard = RobotClipboard{}

// Read returns the clipboard's text contents.
func (RobotClipboard) Read() (string, error) {
	s, err := robotgo.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return s, nil
}

// Write replaces the clipboard's text contents.
func (RobotClipboard) Write(s string) error {
	if err := robotgo.WriteAll(s); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// RobotScaler reports OS backing scale factors. The zero value is ready to
// use.
type RobotScaler struct{}

var _ Scaler = RobotScaler{}

// BackingScale returns the OS-advertised scale for the given display, or 0
// when the OS reports something implausible.
func (RobotScaler) BackingScale(displayIndex int) float64 {
	s := robotgo.ScaleF(displayIndex)
	if !screen.PlausibleScale(s) {
		return 0
	}
	return s
}
