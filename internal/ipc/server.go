package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// Handler processes IPC requests and returns responses.
type Handler func(req Request) Response

// Send calls h. It gives an in-process handler the same shape as
// Client.Send so both can be used with Call.
func (h Handler) Send(req Request) (Response, error) {
	return h(req), nil
}

// Server is a Unix socket IPC server.
type Server struct {
	socketPath string
	listener   net.Listener
	handler    Handler
	wg         sync.WaitGroup
	closed     chan struct{}
	closeOnce  sync.Once

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// NewServer creates a new Unix socket server.
// The socket file is created at the specified path.
func NewServer(socketPath string, handler Handler) (*Server, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(socketPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	// Remove existing socket file if present
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket: %w", err)
	}

	// Set socket permissions to owner-only
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	return &Server{
		socketPath: socketPath,
		listener:   listener,
		handler:    handler,
		closed:     make(chan struct{}),
		conns:      make(map[net.Conn]struct{}),
	}, nil
}

// Serve starts accepting connections. Blocks until Close is called.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.closed:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return nil
			default:
				return fmt.Errorf("accept error: %w", err)
			}
		}

		if !s.track(conn) {
			_ = conn.Close()
			return nil
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn processes a single client connection.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	reader := bufio.NewReader(conn)

	for {
		// Read newline-delimited JSON
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// EOF means client closed connection normally.
			// net.ErrClosed occurs during server shutdown.
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("ipc: unexpected read error: %v", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil || req.Cmd == "" {
			resp := ErrorResponse("invalid request format")
			if err := s.writeResponse(conn, resp); err != nil {
				return
			}
			continue
		}

		resp := s.handler(req)
		if err := s.writeResponse(conn, resp); err != nil {
			return
		}
	}
}

// track registers an accepted connection so Close can interrupt it. It
// reports false once the server is closing.
func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	select {
	case <-s.closed:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
	_ = conn.Close()
}

// writeResponse sends a JSON response to the client.
func (s *Server) writeResponse(conn net.Conn, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = conn.Write(data)
	return err
}

// SocketPath returns the path to the Unix socket.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Close stops the server and cleans up resources.
// Safe to call multiple times concurrently.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.connMu.Lock()
		close(s.closed)
		for conn := range s.conns {
			// Unblocks handlers waiting on idle clients
			_ = conn.Close()
		}
		s.connMu.Unlock()

		err = s.listener.Close()
		s.wg.Wait()
		// Clean up socket file
		_ = os.Remove(s.socketPath)
	})
	return err
}

// DefaultSocketPath returns the XDG-compliant socket path.
func DefaultSocketPath() string {
	// Try XDG_RUNTIME_DIR first
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "htmlfmt", "htmlfmt.sock")
	}

	// Fallback to /tmp/htmlfmt-<uid>/
	return filepath.Join(fmt.Sprintf("/tmp/htmlfmt-%d", os.Getuid()), "htmlfmt.sock")
}

// DefaultPIDPath returns the XDG-compliant PID file path.
func DefaultPIDPath() string {
	// Try XDG_RUNTIME_DIR first
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "htmlfmt", "htmlfmt.pid")
	}

	// Fallback to /tmp/htmlfmt-<uid>/
	return filepath.Join(fmt.Sprintf("/tmp/htmlfmt-%d", os.Getuid()), "htmlfmt.pid")
}
