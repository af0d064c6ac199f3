// Package server exposes the formatter over HTTP and WebSocket, and watches
// files so they can be reformatted on save.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/grantcarthew/htmlfmt/internal/ipc"
)

// DefaultMaxBodyBytes limits the size of a document posted to /format.
const DefaultMaxBodyBytes = 16 << 20

// Config holds server configuration.
type Config struct {
	Port         int         // Server port (0 = auto-detect)
	Host         string      // Bind host ("localhost" or "0.0.0.0")
	Handler      ipc.Handler // Answers format and status requests
	MaxBodyBytes int64       // Request body limit (0 = DefaultMaxBodyBytes)
	WatchPaths   []string    // Paths to watch for changes
	IgnorePaths  []string    // Glob patterns to ignore
	Extensions   []string    // Extensions reported by the watcher
	OnChange     func(events []FileEvent)
	Debug        bool // Enable debug logging
}

// Server is the formatting web server.
type Server struct {
	config   Config
	httpSrv  *http.Server
	watcher  *Watcher
	listener net.Listener
	roots    []string // Absolute watch paths; client paths must lie under one
	mu       sync.RWMutex
	running  bool
	debugLog func(format string, args ...any)

	// WebSocket sessions outlive http.Server.Shutdown once hijacked.
	wsCtx    context.Context
	wsCancel context.CancelFunc
	wsWG     sync.WaitGroup
}

// New creates a new server with the given configuration.
func New(cfg Config) (*Server, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		config: cfg,
		roots:  watchRoots(cfg.WatchPaths),
	}

	if cfg.Debug {
		s.debugLog = func(format string, args ...any) {
			log.Printf("[SERVER] "+format, args...)
		}
	} else {
		s.debugLog = func(format string, args ...any) {}
	}

	return s, nil
}

// validateConfig validates the server configuration.
func validateConfig(cfg Config) error {
	if cfg.Handler == nil {
		return fmt.Errorf("handler is required")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if len(cfg.WatchPaths) > 0 && cfg.OnChange == nil {
		return fmt.Errorf("watch paths require an OnChange callback")
	}
	return nil
}

// Handler returns the HTTP routes served by s.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/format", &formatHandler{
		handler:  s.config.Handler,
		roots:    s.roots,
		maxBody:  s.config.MaxBodyBytes,
		debugLog: s.debugLog,
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start starts the server and file watcher.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	started := false
	defer func() {
		if !started {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	// Find available port if needed
	port := s.config.Port
	if port == 0 {
		var err error
		port, err = findAvailablePort(s.config.Host)
		if err != nil {
			return fmt.Errorf("failed to find available port: %w", err)
		}
		s.debugLog("Auto-detected port: %d", port)
	}

	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpSrv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start file watcher if watch paths are configured
	if len(s.config.WatchPaths) > 0 {
		watcher, err := NewWatcher(WatcherConfig{
			Paths:      s.config.WatchPaths,
			Ignore:     s.config.IgnorePaths,
			Extensions: s.config.Extensions,
			OnChange:   s.handleFileChange,
			Debug:      s.config.Debug,
		})
		if err != nil {
			listener.Close()
			return fmt.Errorf("failed to create file watcher: %w", err)
		}

		if err := watcher.Start(); err != nil {
			listener.Close()
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		s.watcher = watcher
		s.debugLog("File watcher started for paths: %v", s.config.WatchPaths)
	}

	s.mu.Lock()
	s.listener = listener
	s.wsCtx, s.wsCancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()
	started = true

	go func() {
		s.debugLog("HTTP server started on http://%s", listener.Addr())
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server: HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the server, its WebSocket sessions and the file watcher.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	wsCancel := s.wsCancel
	s.mu.Unlock()

	var errs []error

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop watcher: %w", err))
		}
	}

	wsCancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
	}
	s.wsWG.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("stop errors: %w", errors.Join(errs...))
	}

	s.debugLog("Server stopped")
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the server's listening port.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return 0
	}
	addr := s.listener.Addr().(*net.TCPAddr)
	return addr.Port
}

// URL returns the server's full URL.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}

	addr := s.listener.Addr().(*net.TCPAddr)
	host := addr.IP.String()
	if addr.IP.IsUnspecified() {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(addr.Port))
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// handleFileChange is called with each debounced batch of changed files.
func (s *Server) handleFileChange(events []FileEvent) {
	for _, ev := range events {
		s.debugLog("File changed: %s (%s)", ev.Path, ev.Op)
	}
	s.config.OnChange(events)
}

// findAvailablePort finds an available port on the given host.
func findAvailablePort(host string) (int, error) {
	// Try the usual port first
	commonPorts := []int{7331, 8080, 8000}

	for _, port := range commonPorts {
		if isPortAvailable(host, port) {
			return port, nil
		}
	}

	// Fall back to OS-assigned port
	listener, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	return port, nil
}

// isPortAvailable checks if a port is available for binding.
func isPortAvailable(host string, port int) bool {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
