// Copyright 2025 Joseph Cumines
//
// Request framing: HTTP/1.1-shaped parsing over a raw byte stream

// Package transport implements the gateway's wire layer: a hand-rolled
// HTTP/1.1-shaped request/response framing over loopback TCP, the JSON-RPC
// 2.0 message types carried by the RPC endpoint, a worker-pool connection
// server, and the metrics registry exported through it.
//
// Framing is deliberately minimal: one request per connection, bodies sized
// by Content-Length only (no chunked transfer), and every response closes
// the connection. A request that never completes is abandoned without a
// response.
package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Framing limits. A peer exceeding any of these is treated as malformed
// and dropped without a response.
const (
	maxLineBytes   = 8 << 10
	maxHeaderBytes = 64 << 10
	maxBodyBytes   = 8 << 20
)

// Request is one parsed request: the start-line tokens, a case-insensitive
// header map, and the raw body. It is constructed once per connection and
// immutable afterwards.
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type Request struct {
	// Method is the verb token, upper-case as received.
	Method string

	// Path is the request target as received, query string included.
	Path string

	// Proto is the protocol token, e.g. "HTTP/1.1".
	Proto string

	// Headers maps lower-cased header names to values. Repeated headers
	// keep the last value; none of the recognized headers repeat.
	Headers map[string]string

	// Body holds the raw body bytes, sized by Content-Length. Nil when the
	// request declared no length.
	Body []byte

	// RemoteAddr is the peer address, filled in by the connection server.
	RemoteAddr string
}

// ParseRequest assembles one complete request from r, blocking until the
// header block and the declared body length have arrived. Any framing
// violation (malformed start-line or header, oversize section, stream
// ending early) returns an error; per the error taxonomy the caller drops
// the connection silently.
func ParseRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("read start-line: %w", err)
	}
	method, rest, ok := strings.Cut(line, " ")
	if !ok {
		return nil, fmt.Errorf("malformed start-line %q", line)
	}
	target, proto, ok := strings.Cut(rest, " ")
	if !ok || method == "" || target == "" || !strings.HasPrefix(proto, "HTTP/") {
		return nil, fmt.Errorf("malformed start-line %q", line)
	}

	req := &Request{
		Method:  method,
		Path:    target,
		Proto:   proto,
		Headers: make(map[string]string, 8),
	}

	total := 0
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			break
		}
		total += len(line)
		if total > maxHeaderBytes {
			return nil, fmt.Errorf("header block exceeds %d bytes", maxHeaderBytes)
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed header %q", line)
		}
		req.Headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	// A missing length header means an empty body; chunked transfer is not
	// supported at all.
	cl := req.Headers["content-length"]
	if cl == "" {
		return req, nil
	}
	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid Content-Length %q", cl)
	}
	if n > maxBodyBytes {
		return nil, fmt.Errorf("body of %d bytes exceeds %d byte limit", n, maxBodyBytes)
	}
	req.Body = make([]byte, n)
	if _, err := io.ReadFull(r, req.Body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return req, nil
}

// readLine reads one CRLF- or LF-terminated line, enforcing the line
// limit. EOF before the terminator is an error: a partial line means the
// peer hung up mid-request.
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > maxLineBytes {
			return "", fmt.Errorf("line exceeds %d bytes", maxLineBytes)
		}
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return "", err
	}
	line := strings.TrimSuffix(string(buf), "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// PathOnly returns the path with any query string removed; routing matches
// on this value.
func (r *Request) PathOnly() string {
	p, _, _ := strings.Cut(r.Path, "?")
	return p
}

// QueryValue returns the first value of the named query parameter, or ""
// when absent or unparseable.
func (r *Request) QueryValue(key string) string {
	_, rawQuery, ok := strings.Cut(r.Path, "?")
	if !ok {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}
	return values.Get(key)
}

// Header returns the value of the named header, case-insensitively.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// BearerToken extracts the credential from an "Authorization: Bearer x"
// header. Any other scheme yields "", which fails the token check.
func (r *Request) BearerToken() string {
	const prefix = "Bearer "
	h := r.Header("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// DecodeJSON unmarshals the body into v. An empty body decodes as an empty
// object, leaving v at its zero value; handlers reject missing required
// fields themselves.
func (r *Request) DecodeJSON(v any) error {
	body := bytes.TrimSpace(r.Body)
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
