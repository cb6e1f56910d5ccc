// Copyright 2025 Joseph Cumines
//
// Client side of the wire framing, used by the CLI and tests

package transport

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ClientResponse is a response as read back by a client.
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type ClientResponse struct {
	// Proto is the protocol token from the status line.
	Proto string

	// Status is the parsed status code.
	Status int

	// Headers maps lower-cased header names to values.
	Headers map[string]string

	// Body is the response body.
	Body []byte
}

// WriteRequest serializes one request. Content-Length is always computed
// from body; headers must not carry it.
func WriteRequest(w io.Writer, method, path string, headers map[string]string, body []byte) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, path)

	names := make([]string, 0, len(headers))
	for name := range headers {
		if strings.EqualFold(name, "Content-Length") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\r\n", name, headers[name])
	}
	if len(body) > 0 {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write request head: %w", err)
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("write request body: %w", err)
		}
	}
	return nil
}

// ReadResponse parses one response off the wire. A response without a
// Content-Length is read to EOF, relying on the server's connection-close
// framing.
func ReadResponse(r *bufio.Reader) (*ClientResponse, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("read status line: %w", err)
	}
	proto, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/") {
		return nil, fmt.Errorf("malformed status line %q", line)
	}
	codeStr, _, _ := strings.Cut(rest, " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, fmt.Errorf("malformed status code in %q", line)
	}

	resp := &ClientResponse{
		Proto:   proto,
		Status:  code,
		Headers: make(map[string]string, 8),
	}
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed header %q", line)
		}
		resp.Headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	cl := resp.Headers["content-length"]
	if cl == "" {
		body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if len(body) > maxBodyBytes {
			return nil, fmt.Errorf("body exceeds %d byte limit", maxBodyBytes)
		}
		resp.Body = body
		return resp, nil
	}
	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid Content-Length %q", cl)
	}
	if n > maxBodyBytes {
		return nil, fmt.Errorf("body of %d bytes exceeds %d byte limit", n, maxBodyBytes)
	}
	resp.Body = make([]byte, n)
	if _, err := io.ReadFull(r, resp.Body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return resp, nil
}

// Do dials addr, sends one request, and reads the response. Each call uses
// a fresh connection, matching the server's one-request-per-connection
// model.
func Do(addr string, timeout time.Duration, method, path string, headers map[string]string, body []byte) (*ClientResponse, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	if err := WriteRequest(conn, method, path, headers, body); err != nil {
		return nil, err
	}
	return ReadResponse(bufio.NewReader(conn))
}
