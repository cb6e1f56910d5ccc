// Copyright 2025 Joseph Cumines
//
// Capture route tests

package server

import (
	"bytes"
	"encoding/base64"
	"os"
	"testing"

	"github.com/joeycumines/screenpilot/internal/automation"
	"github.com/joeycumines/screenpilot/internal/screen"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestScreenshotEnvelope(t *testing.T) {
	fix := newFixture(t)

	resp := fix.gw.route(request("POST", "/screenshot", map[string]any{}))
	if resp.Status != 200 {
		t.Fatalf("status = %d, want 200: %s", resp.Status, resp.Body)
	}

	var body struct {
		OK        bool   `json:"ok"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Path      string `json:"path"`
		Image     string `json:"image"`
		MediaType string `json:"media_type"`
		Scale     float64
	}
	decodeBody(t, resp, &body)

	if !body.OK {
		t.Error("ok = false, want true")
	}
	if body.Width <= 0 || body.Height <= 0 {
		t.Errorf("dimensions = %dx%d, want positive", body.Width, body.Height)
	}
	if body.MediaType != "image/png" {
		t.Errorf("media_type = %q, want image/png", body.MediaType)
	}

	png, err := base64.StdEncoding.DecodeString(body.Image)
	if err != nil {
		t.Fatalf("image is not valid base64: %v", err)
	}
	if !bytes.HasPrefix(png, pngSignature) {
		t.Errorf("decoded image does not start with a PNG signature")
	}

	if body.Path == "" {
		t.Fatal("path missing: capture was not persisted")
	}
	if _, err := os.Stat(body.Path); err != nil {
		t.Errorf("artifact not on disk: %v", err)
	}
}

func TestScreenshotNoEmbed(t *testing.T) {
	fix := newFixture(t)

	resp := fix.gw.route(request("POST", "/screenshot", map[string]any{"embed": false}))
	if resp.Status != 200 {
		t.Fatalf("status = %d, want 200: %s", resp.Status, resp.Body)
	}

	var body struct {
		Image string `json:"image"`
		Path  string `json:"path"`
	}
	decodeBody(t, resp, &body)
	if body.Image != "" {
		t.Error("image embedded despite embed=false")
	}
	if body.Path == "" {
		t.Error("path missing: artifact should persist regardless of embed")
	}
}

func TestScreenshotMaxSizeResizes(t *testing.T) {
	fix := newFixture(t)

	resp := fix.gw.route(request("POST", "/screenshot", map[string]any{"max_size": 800}))
	if resp.Status != 200 {
		t.Fatalf("status = %d, want 200: %s", resp.Status, resp.Body)
	}

	var body struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	decodeBody(t, resp, &body)
	if body.Width > 800 || body.Height > 800 {
		t.Errorf("dimensions = %dx%d, want both <= 800", body.Width, body.Height)
	}
}

func TestScreenshotBadMaxSize(t *testing.T) {
	fix := newFixture(t)

	resp := fix.gw.route(request("POST", "/screenshot", map[string]any{"max_size": "gigantic"}))
	if resp.Status != 400 {
		t.Fatalf("status = %d, want 400", resp.Status)
	}
	if tag := errorTag(t, resp); tag != "bad_request" {
		t.Errorf("error tag = %q, want %q", tag, "bad_request")
	}
}

func TestScreenshotUnknownDisplay(t *testing.T) {
	fix := newFixture(t)

	resp := fix.gw.route(request("POST", "/screenshot", map[string]any{"display": 7}))
	if resp.Status != 400 {
		t.Fatalf("status = %d, want 400", resp.Status)
	}
}

func TestWindowCapture(t *testing.T) {
	fix := newFixture(t)

	resp := fix.gw.route(request("POST", "/window/capture", map[string]any{"app": "finder"}))
	if resp.Status != 200 {
		t.Fatalf("status = %d, want 200: %s", resp.Status, resp.Body)
	}

	var body struct {
		OK     bool `json:"ok"`
		Window *struct {
			ID int `json:"id"`
		} `json:"window"`
		Width int `json:"width"`
	}
	decodeBody(t, resp, &body)
	if !body.OK {
		t.Error("ok = false, want true")
	}
	if body.Window == nil || body.Window.ID != 101 {
		t.Errorf("window = %+v, want id 101", body.Window)
	}
	if body.Width <= 0 {
		t.Errorf("width = %d, want positive", body.Width)
	}
}

func TestWindowCaptureNotFound(t *testing.T) {
	fix := newFixture(t)

	resp := fix.gw.route(request("POST", "/window/capture", map[string]any{"title": "zzz"}))
	if resp.Status != 404 {
		t.Fatalf("status = %d, want 404", resp.Status)
	}
	if tag := errorTag(t, resp); tag != "window_not_found" {
		t.Errorf("error tag = %q, want %q", tag, "window_not_found")
	}
}

func TestBurst(t *testing.T) {
	fix := newFixture(t)

	resp := fix.gw.route(request("POST", "/burst", map[string]any{"frames": 2, "interval_ms": 1}))
	if resp.Status != 200 {
		t.Fatalf("status = %d, want 200: %s", resp.Status, resp.Body)
	}

	var body struct {
		OK       bool    `json:"ok"`
		Captured int     `json:"captured"`
		Elapsed  float64 `json:"elapsed_seconds"`
		Frames   []struct {
			Path string `json:"path"`
		} `json:"frames"`
	}
	decodeBody(t, resp, &body)
	if !body.OK || body.Captured != 2 {
		t.Errorf("captured = %d, want 2", body.Captured)
	}
	if body.Elapsed <= 0 {
		t.Errorf("elapsed_seconds = %v, want positive", body.Elapsed)
	}
	for _, f := range body.Frames {
		if _, err := os.Stat(f.Path); err != nil {
			t.Errorf("frame not on disk: %v", err)
		}
	}
}

func TestCalibrate(t *testing.T) {
	fix := newFixture(t)
	fix.input.pos.X = 12
	fix.input.pos.Y = 34

	resp := fix.gw.route(request("POST", "/calibrate", map[string]any{"guidance": "pointer parked top-left"}))
	if resp.Status != 200 {
		t.Fatalf("status = %d, want 200: %s", resp.Status, resp.Body)
	}

	var body struct {
		OK bool `json:"ok"`
	}
	decodeBody(t, resp, &body)
	if !body.OK {
		t.Error("ok = false, want true")
	}
}

func TestCaptureDenied(t *testing.T) {
	store, err := automation.NewArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifactStore: %v", err)
	}
	engine := automation.New(automation.Deps{
		Screen:    &fakeScreen{displays: []screen.Bounds{{W: 1920, H: 1080}}, scale: 1},
		Input:     &fakeInput{},
		Windows:   &fakeWindows{},
		Clipboard: &fakeClipboard{},
		Perms:     &fakePerms{capture: false, inject: true},
		Artifacts: store,
	})
	gw := NewGateway(Options{Engine: engine, Tokens: NewTokenStore(testToken)})

	resp := gw.route(request("POST", "/screenshot", map[string]any{}))
	if resp.Status != 403 {
		t.Fatalf("status = %d, want 403", resp.Status)
	}
	if tag := errorTag(t, resp); tag != "screen_capture_denied" {
		t.Errorf("error tag = %q, want %q", tag, "screen_capture_denied")
	}
}
