// Copyright 2025 Joseph Cumines
//
// Window lookup by id, pid, app name, or title

package automation

import (
	"fmt"
	"strings"

	"github.com/joeycumines/screenpilot/internal/osauto"
)

// Selector identifies a window. At least one field must be set. An
// explicit ID wins outright (its existence is still verified, other fields
// are ignored); otherwise PID, app-name substring, and title substring
// narrow the candidate set together, each being case-insensitive.
type Selector struct {
	App   string `json:"app,omitempty"`
	Title string `json:"title,omitempty"`
	ID    int    `json:"id,omitempty"`
	PID   int    `json:"pid,omitempty"`
}

// IsZero reports whether no identifying field is set.
func (s Selector) IsZero() bool {
	return s.ID == 0 && s.PID == 0 && s.App == "" && s.Title == ""
}

// String renders the populated fields for error messages.
func (s Selector) String() string {
	var parts []string
	if s.ID != 0 {
		parts = append(parts, fmt.Sprintf("id=%d", s.ID))
	}
	if s.PID != 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", s.PID))
	}
	if s.App != "" {
		parts = append(parts, fmt.Sprintf("app=%q", s.App))
	}
	if s.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", s.Title))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

// ResolveWindow picks the window matching sel from wins, applying the
// selector precedence. The snapshot is searched in order, so the frontmost
// match wins when several windows qualify.
func ResolveWindow(wins []osauto.Window, sel Selector) (osauto.Window, error) {
	if sel.IsZero() {
		return osauto.Window{}, fmt.Errorf("%w: window selector requires id, pid, app, or title", ErrBadRequest)
	}

	if sel.ID != 0 {
		for _, w := range wins {
			if w.ID == sel.ID {
				return w, nil
			}
		}
		return osauto.Window{}, fmt.Errorf("%w: %s", ErrWindowNotFound, sel)
	}

	for _, w := range wins {
		if sel.PID != 0 && w.PID != sel.PID {
			continue
		}
		if sel.App != "" && !containsFold(w.App, sel.App) {
			continue
		}
		if sel.Title != "" && !containsFold(w.Title, sel.Title) {
			continue
		}
		return w, nil
	}
	return osauto.Window{}, fmt.Errorf("%w: %s", ErrWindowNotFound, sel)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
