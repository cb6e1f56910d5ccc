// Copyright 2025 Joseph Cumines
//
// Sentinel errors for the automation engine

package automation

import "errors"

// Sentinel errors returned by engine operations. Handlers map these to
// protocol status codes and stable error tags with errors.Is; everything
// else is an internal failure.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrWindowNotFound = errors.New("window not found")
	ErrNoDisplay      = errors.New("no display available")
	ErrCaptureDenied  = errors.New("screen capture not permitted")
	ErrInputDenied    = errors.New("input injection not permitted")
)
