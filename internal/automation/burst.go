// Copyright 2025 Joseph Cumines
//
// Timed burst capture of a display

package automation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joeycumines/screenpilot/internal/screen"
)

const (
	burstDefaultFrames   = 10
	burstMaxFrames       = 60
	burstDefaultInterval = 200 * time.Millisecond
	burstMinInterval     = 50 * time.Millisecond
)

// BurstOptions tune a burst capture. Zero frame count and interval take
// the defaults; out-of-range values are clamped rather than rejected so a
// caller asking for too much still gets the best available recording.
type BurstOptions struct {
	Frames     int
	IntervalMS int
	Display    *int
	MaxSize    screen.MaxSize
}

// BurstFrame is one persisted frame of a burst.
type BurstFrame struct {
	Index      int       `json:"index"`
	Path       string    `json:"path"`
	CapturedAt time.Time `json:"captured_at"`
}

// Burst is the outcome of a burst capture: which frames landed on disk,
// how long the session took, and the rate actually achieved.
type Burst struct {
	ID             string       `json:"id"`
	Dir            string       `json:"dir"`
	Frames         []BurstFrame `json:"frames"`
	Requested      int          `json:"requested"`
	Captured       int          `json:"captured"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Rate           float64      `json:"rate"`
}

// CaptureBurst records a timed sequence of display captures into a fresh
// session directory. The loop is synchronous: it paces itself with the
// requested interval and returns when the last frame is done. Frames that
// fail to capture or persist are skipped, not fatal.
func (e *Engine) CaptureBurst(opts BurstOptions) (*Burst, error) {
	if !e.perms.CanCapture() {
		return nil, ErrCaptureDenied
	}

	frames := opts.Frames
	if frames == 0 {
		frames = burstDefaultFrames
	}
	frames = clampInt(frames, 1, burstMaxFrames)

	interval := time.Duration(opts.IntervalMS) * time.Millisecond
	if opts.IntervalMS == 0 {
		interval = burstDefaultInterval
	} else if interval < burstMinInterval {
		interval = burstMinInterval
	}

	ds := e.displays()
	if len(ds) == 0 {
		return nil, ErrNoDisplay
	}
	d := ds[0]
	if opts.Display != nil {
		i := *opts.Display
		if i < 0 || i >= len(ds) {
			return nil, fmt.Errorf("%w: display %d out of range, have %d", ErrBadRequest, i, len(ds))
		}
		d = ds[i]
	}

	id := uuid.NewString()
	dir, err := e.artifacts.NewBurstDir(id)
	if err != nil {
		return nil, fmt.Errorf("burst session dir: %w", err)
	}

	b := &Burst{ID: id, Dir: dir, Requested: frames}
	ceiling := opts.MaxSize.Ceiling()
	start := e.now()
	var last time.Time
	for i := 0; i < frames; i++ {
		if i > 0 {
			e.sleep(interval)
		}
		img, err := e.screenSrc.Capture(d.Bounds)
		if err != nil {
			continue
		}
		final, _ := screen.Apply(img, ceiling, screen.ModeScale, nil)
		data, err := encodePNG(final)
		if err != nil {
			continue
		}
		path, err := e.artifacts.SaveFrame(dir, i, data)
		if err != nil {
			continue
		}
		last = e.now()
		b.Frames = append(b.Frames, BurstFrame{Index: i, Path: path, CapturedAt: last})
	}

	b.Captured = len(b.Frames)
	if b.Captured > 0 {
		b.ElapsedSeconds = last.Sub(start).Seconds()
	}
	if b.Captured > 1 && b.ElapsedSeconds > 0 {
		b.Rate = float64(b.Captured-1) / b.ElapsedSeconds
	}
	return b, nil
}

// clampInt pins v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
