package rpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/logging"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 1 << 20

// writeQueueSize bounds per-connection pending outbound lines. The event
// forwarder drops events rather than block when a client stops reading.
const writeQueueSize = 64

// Server accepts unix-socket connections and serves the router over
// newline-delimited JSON-RPC. Every connection also receives all broadcast
// events as notifications.
type Server struct {
	socketPath string
	router     *Router
	events     *bus.Bus

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool

	wg sync.WaitGroup
}

// NewServer creates a server for the given socket path.
func NewServer(socketPath string, router *Router, events *bus.Bus) *Server {
	return &Server{
		socketPath: socketPath,
		router:     router,
		events:     events,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start binds the socket and begins accepting connections. A stale socket
// file left by a dead daemon is removed; a live one is an error.
func (s *Server) Start() error {
	if _, err := os.Stat(s.socketPath); err == nil {
		conn, err := net.DialTimeout("unix", s.socketPath, time.Second)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running on %s", s.socketPath)
		}
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
		logging.Infow("removed stale socket", "path", s.socketPath)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(listener)
	logging.Infow("rpc server listening", "socket", s.socketPath, "methods", s.router.Methods())
	return nil
}

// Stop closes the listener and all live connections, then waits for the
// per-connection goroutines to finish.
func (s *Server) Stop() {
	s.mu.Lock()
	s.closed = true
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			logging.Warnw("accept failed", "error", err)
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn runs three goroutines per connection: this reader, an event
// forwarder, and a writer that serializes all outbound lines.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	sub := s.events.Subscribe()
	defer sub.Unsubscribe()

	writeCh := make(chan []byte, writeQueueSize)
	done := make(chan struct{})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		w := bufio.NewWriter(conn)
		for line := range writeCh {
			if _, err := w.Write(line); err != nil {
				return
			}
			if err := w.WriteByte('\n'); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}()

	forwarderDone := make(chan struct{})
	go func() {
		defer close(forwarderDone)
		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				line, err := json.Marshal(notificationFor(ev))
				if err != nil {
					continue
				}
				select {
				case writeCh <- line:
				case <-done:
					return
				default:
					// Client not keeping up; drop the notification.
				}
			case <-done:
				return
			}
		}
	}()

	// Teardown runs however the reader exits, so a dead writer can never
	// strand the forwarder or leak the subscription.
	defer func() {
		close(done)
		<-forwarderDone
		close(writeCh)
		<-writerDone
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		resp := s.handleLine(line)
		if resp == nil {
			continue
		}
		out, err := json.Marshal(resp)
		if err != nil {
			logging.Errorw("failed to marshal response", "error", err)
			continue
		}
		select {
		case writeCh <- out:
		case <-writerDone:
			// Write side is gone; the connection is unusable.
			return
		}
	}
}

// handleLine parses and dispatches one request line. A malformed line gets
// a parse-error response with a null id; the connection stays up.
func (s *Server) handleLine(line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return NewErrorResponse(nil, NewError(CodeParseError, "parse error: %s", err.Error()))
	}
	return s.router.Dispatch(&req)
}

// notificationFor wraps a broadcast event in its notification method.
func notificationFor(ev bus.Event) *Notification {
	var method string
	switch ev.(type) {
	case *domain.TimerEvent:
		method = "timer.event"
	case *domain.TaskEvent:
		method = "task.event"
	case *domain.EntryEvent:
		method = "entry.event"
	case *domain.ProfileEvent:
		method = "profile.event"
	default:
		method = "event"
	}
	return &Notification{Jsonrpc: Version, Method: method, Params: ev}
}
