// Copyright 2025 Joseph Cumines
//
// Loopback TCP server with a fixed worker pool

package transport

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ServerConfig holds configuration for the connection server.
// Host is the interface to bind; anything resolving off-loopback is
// rejected at accept time regardless.
// Port is the TCP port; 0 lets the OS pick (used in tests).
// Workers is the size of the connection-handling pool.
// ReadTimeout bounds how long one request may take to arrive.
// WriteTimeout bounds how long one response may take to drain.
type ServerConfig struct {
	Host         string
	Port         int
	Workers      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:         "127.0.0.1",
		Port:         4477,
		Workers:      8,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Handler produces the response for one parsed request. Handlers run on
// pool workers and must be safe for concurrent use.
type Handler func(*Request) *Response

// EventKind classifies server lifecycle and connection events.
type EventKind string

const (
	// EventListening fires once the listener is bound; Addr carries the
	// actual listen address.
	EventListening EventKind = "listening"
	// EventConnRejected fires when a non-loopback peer is turned away.
	EventConnRejected EventKind = "conn_rejected"
	// EventConnDropped fires when a connection is abandoned without a
	// response: framing violations, peer hangups, write failures.
	EventConnDropped EventKind = "conn_dropped"
	// EventStopped fires after the listener is closed and every in-flight
	// request has drained.
	EventStopped EventKind = "stopped"
)

// Event is a structured server notification. Consumers read these from
// Events; an unconsumed event is dropped rather than blocking the server.
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type Event struct {
	Kind EventKind
	Addr string
	Err  error
}

// Server accepts loopback TCP connections and serves exactly one request
// per connection on a fixed worker pool. No request failure is fatal: a
// malformed request drops its own connection, a handler panic becomes a
// 500, and unrelated connections are unaffected.
//
//lint:ignore BETTERALIGN struct is intentionally ordered for clarity
type Server struct {
	config  *ServerConfig
	handler Handler
	metrics *MetricsRegistry

	conns  chan net.Conn
	events chan Event

	mu     sync.Mutex
	ln     net.Listener
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewServer creates a server over the given handler. A nil config takes
// defaults; a nil metrics registry disables instrumentation.
func NewServer(config *ServerConfig, handler Handler, metrics *MetricsRegistry) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	if config.Workers <= 0 {
		config.Workers = 8
	}
	return &Server{
		config:  config,
		handler: handler,
		metrics: metrics,
		conns:   make(chan net.Conn),
		events:  make(chan Event, 32),
	}
}

// Events returns the server's event stream. It is closed when Serve
// returns.
func (s *Server) Events() <-chan Event { return s.events }

// Addr returns the bound listen address, or nil before Serve binds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve binds the listener, starts the worker pool, and accepts until
// Close. It is called at most once; it returns nil after a clean Close.
func (s *Server) Serve() error {
	defer close(s.events)

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	if s.closed.Load() {
		// Close raced ahead of the bind.
		ln.Close()
		return nil
	}

	log.Printf("listening on %s", ln.Addr())
	s.emit(Event{Kind: EventListening, Addr: ln.Addr().String()})

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() {
				break
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// Unexpected accept failure: drain and report.
			close(s.conns)
			s.wg.Wait()
			s.emit(Event{Kind: EventStopped})
			return fmt.Errorf("accept: %w", err)
		}
		if !isLoopback(conn.RemoteAddr()) {
			s.emit(Event{Kind: EventConnRejected, Addr: conn.RemoteAddr().String()})
			s.count("rejected")
			conn.Close()
			continue
		}
		s.conns <- conn
	}

	close(s.conns)
	s.wg.Wait()
	s.emit(Event{Kind: EventStopped})
	return nil
}

// Close stops accepting and unblocks Serve. It is idempotent; in-flight
// requests run to completion before Serve returns.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		return ln.Close()
	}
	return nil
}

func (s *Server) worker() {
	defer s.wg.Done()
	for conn := range s.conns {
		s.handleConn(conn)
	}
}

// handleConn serves exactly one request and tears the connection down
// unconditionally afterwards.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()

	if t := s.config.ReadTimeout; t > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t))
	}
	req, err := ParseRequest(bufio.NewReaderSize(conn, 4<<10))
	if err != nil {
		// Malformed or incomplete: abandoned without a response.
		s.emit(Event{Kind: EventConnDropped, Addr: peer, Err: err})
		s.count("dropped")
		return
	}
	req.RemoteAddr = peer

	start := time.Now()
	if s.metrics != nil {
		s.metrics.AddInflight(1)
	}
	resp := s.dispatch(req)
	if s.metrics != nil {
		s.metrics.AddInflight(-1)
		s.metrics.RecordRequest(req.Method, req.PathOnly(), resp.Status, time.Since(start))
	}

	if t := s.config.WriteTimeout; t > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t))
	}
	if err := resp.WriteTo(conn); err != nil {
		s.emit(Event{Kind: EventConnDropped, Addr: peer, Err: err})
		s.count("dropped")
	}
}

// dispatch invokes the handler, converting a panic into a 500 so a single
// bad request cannot take the process down.
func (s *Server) dispatch(req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic serving %s %s: %v", req.Method, req.PathOnly(), r)
			resp = JSONResponse(500, map[string]string{"error": "internal_error"})
		}
	}()
	return s.handler(req)
}

// emit publishes an event without ever blocking request handling.
func (s *Server) emit(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

func (s *Server) count(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordConn(outcome)
	}
}

// isLoopback reports whether addr is a loopback TCP peer. Anything else,
// including non-TCP addresses, is rejected.
func isLoopback(addr net.Addr) bool {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return false
	}
	return tcp.IP.IsLoopback()
}
