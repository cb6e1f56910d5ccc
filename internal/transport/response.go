// Copyright 2025 Joseph Cumines
//
// Response serialization for the one-request-per-connection wire model

package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Response is one response to be serialized to the wire. Serialization
// always computes Content-Length from the body and marks the connection
// closed, overriding anything a handler put in Headers.
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Headers holds additional headers. Content-Length and Connection are
	// ignored here; they are always computed at write time.
	Headers map[string]string

	// Body is the raw response body.
	Body []byte
}

// reasonPhrases covers the status codes the gateway emits.
var reasonPhrases = map[int]string{
	200: "OK",
	202: "Accepted",
	204: "No Content",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
}

func reasonPhrase(status int) string {
	if p, ok := reasonPhrases[status]; ok {
		return p
	}
	return "Status " + fmt.Sprint(status)
}

// WriteTo serializes the response: status line, headers in sorted order,
// the computed Content-Length and Connection: close, a blank line, and the
// body.
func (r *Response) WriteTo(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.Status, reasonPhrase(r.Status))

	names := make([]string, 0, len(r.Headers))
	hasType := false
	for name := range r.Headers {
		switch strings.ToLower(name) {
		case "content-length", "connection":
			continue
		case "content-type":
			hasType = true
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\r\n", name, r.Headers[name])
	}
	if len(r.Body) > 0 && !hasType {
		b.WriteString("Content-Type: application/json\r\n")
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(r.Body))
	b.WriteString("Connection: close\r\n\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write response head: %w", err)
	}
	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return fmt.Errorf("write response body: %w", err)
		}
	}
	return nil
}

// JSONResponse builds a response with a JSON body. Values that fail to
// marshal degrade to a plain 500 so a response always goes out.
func JSONResponse(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return &Response{
			Status:  500,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    []byte(`{"error":"internal_error"}`),
		}
	}
	return &Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}
}

// TextResponse builds a plain-text response.
func TextResponse(status int, body string) *Response {
	return &Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:    []byte(body),
	}
}

// HTMLResponse builds an HTML response.
func HTMLResponse(status int, body string) *Response {
	return &Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "text/html; charset=utf-8"},
		Body:    []byte(body),
	}
}

// PNGResponse builds a response carrying encoded image bytes.
func PNGResponse(data []byte) *Response {
	return &Response{
		Status:  200,
		Headers: map[string]string{"Content-Type": "image/png"},
		Body:    data,
	}
}

// NoContent builds the empty 204 used to answer preflight probes.
func NoContent() *Response {
	return &Response{Status: 204}
}

// Accepted builds the empty-body 202 acknowledging requests that produce
// no response payload, such as an all-notifications JSON-RPC batch.
func Accepted() *Response {
	return &Response{Status: 202}
}
