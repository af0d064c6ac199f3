// Package daemon keeps a formatter resident behind the IPC socket so editors
// and scripts can format without paying process start-up on every save.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/grantcarthew/htmlfmt/internal/config"
	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
)

// DefaultLogSize is the default number of format requests kept for "log".
const DefaultLogSize = 200

// Config holds daemon configuration.
type Config struct {
	SocketPath string
	PIDPath    string
	LogSize    int
	Debug      bool
	// Options, when set, replaces per-file config discovery for requests
	// that carry no options of their own.
	Options *htmlformat.Options
	// CommandExecutor is called by REPL for CLI command execution with flags.
	// If nil, REPL falls back to basic IPC-only execution.
	CommandExecutor ipc.CommandExecutor
}

// DefaultConfig returns the default daemon configuration.
func DefaultConfig() Config {
	return Config{
		SocketPath: ipc.DefaultSocketPath(),
		PIDPath:    ipc.DefaultPIDPath(),
		LogSize:    DefaultLogSize,
	}
}

// Daemon is the persistent htmlfmt daemon process.
type Daemon struct {
	config       Config
	server       *ipc.Server
	log          *RingBuffer[ipc.LogEntry]
	started      time.Time
	formatted    atomic.Int64
	failed       atomic.Int64
	shutdown     chan struct{}
	shutdownOnce sync.Once
	debug        bool
}

// debugf logs a debug message if debug mode is enabled.
func (d *Daemon) debugf(format string, args ...any) {
	if d.debug {
		timestamp := time.Now().Format("15:04:05.000")
		fmt.Fprintf(os.Stderr, "[DEBUG] [%s] "+format+"\n", append([]any{timestamp}, args...)...)
	}
}

// New creates a new daemon with the given configuration.
func New(cfg Config) *Daemon {
	if cfg.LogSize <= 0 {
		cfg.LogSize = DefaultLogSize
	}

	return &Daemon{
		config:   cfg,
		log:      NewRingBuffer[ipc.LogEntry](cfg.LogSize),
		started:  time.Now(),
		shutdown: make(chan struct{}),
		debug:    cfg.Debug,
	}
}

// Handler returns the IPC request handler function.
// Used by the CLI to create a direct executor for REPL command execution.
func (d *Daemon) Handler() ipc.Handler {
	return d.handleRequest
}

// Run starts the daemon and blocks until shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer d.removePIDFile()

	server, err := ipc.NewServer(d.config.SocketPath, d.handleRequest)
	if err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	d.server = server
	defer d.server.Close()
	d.debugf("Listening on %s", d.config.SocketPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.server.Serve(ctx)
	}()

	// replDone is only closed when REPL exits; if stdin is not a TTY,
	// it stays open so the select below doesn't trigger early exit.
	replDone := make(chan struct{})
	if IsStdinTTY() {
		repl := NewREPL(d.handleRequest, d.config.CommandExecutor, d.triggerShutdown)
		repl.SetStatsProvider(func() int64 { return d.formatted.Load() })
		go func() {
			defer close(replDone)
			repl.Run()
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sigCh:
		return nil
	case <-d.shutdown:
		return nil
	case err := <-errCh:
		return err
	case <-replDone:
		return nil
	}
}

// handleRequest processes an IPC request and returns a response.
func (d *Daemon) handleRequest(req ipc.Request) ipc.Response {
	d.debugf("Request: %s", req.Cmd)

	switch req.Cmd {
	case ipc.CmdFormat:
		return d.handleFormat(req)
	case ipc.CmdStatus:
		return d.handleStatus()
	case ipc.CmdLog:
		return d.handleLog(req)
	case ipc.CmdClear:
		return d.handleClear()
	case ipc.CmdShutdown:
		return d.handleShutdown()
	default:
		return ipc.ErrorResponse(fmt.Sprintf("unknown command: %s", req.Cmd))
	}
}

// handleFormat formats the document carried in the request.
func (d *Daemon) handleFormat(req ipc.Request) ipc.Response {
	var params ipc.FormatParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ipc.ErrorResponse(fmt.Sprintf("invalid params: %v", err))
		}
	}

	start := time.Now()
	entry := ipc.LogEntry{
		Path:      params.Path,
		InBytes:   len(params.HTML),
		Timestamp: start.UnixMilli(),
	}

	out, err := d.format(params)
	entry.Duration = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		d.failed.Add(1)
		entry.Error = err.Error()
		d.log.Push(entry)
		return ipc.ErrorResponse(err.Error())
	}

	d.formatted.Add(1)
	entry.OutBytes = len(out)
	entry.Changed = out != params.HTML
	d.log.Push(entry)
	d.debugf("Formatted %q: %d -> %d bytes in %.3fms", params.Path, entry.InBytes, entry.OutBytes, entry.Duration)

	return ipc.SuccessResponse(ipc.FormatData{HTML: out, Changed: entry.Changed})
}

func (d *Daemon) format(params ipc.FormatParams) (string, error) {
	opts, err := d.optionsFor(params)
	if err != nil {
		return "", err
	}
	return htmlformat.Format(params.HTML, opts)
}

// optionsFor resolves the options for one request. Explicit options win;
// otherwise the daemon's fixed options, then the config file found next to
// the request's path. Kind overrides from that config file are kept when
// the explicit options carry none.
func (d *Daemon) optionsFor(params ipc.FormatParams) (htmlformat.Options, error) {
	base := htmlformat.DefaultOptions()
	switch {
	case d.config.Options != nil:
		base = *d.config.Options
	case params.Path != "":
		f, err := config.Discover(filepath.Dir(params.Path))
		if err != nil {
			return htmlformat.Options{}, err
		}
		base = f.Options()
	}

	if params.Options == nil {
		return base, nil
	}
	opts := *params.Options
	if opts.Kinds == nil {
		opts.Kinds = base.Kinds
	}
	return opts, nil
}

// handleStatus reports process and usage information.
func (d *Daemon) handleStatus() ipc.Response {
	return ipc.SuccessResponse(ipc.StatusData{
		Running:   true,
		PID:       os.Getpid(),
		Uptime:    time.Since(d.started).Round(time.Second).String(),
		Formatted: d.formatted.Load(),
		Failed:    d.failed.Load(),
		Socket:    d.config.SocketPath,
	})
}

// handleLog returns the recent format requests.
func (d *Daemon) handleLog(req ipc.Request) ipc.Response {
	var params ipc.LogParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ipc.ErrorResponse(fmt.Sprintf("invalid params: %v", err))
		}
	}

	var entries []ipc.LogEntry
	if params.Errors {
		entries = d.log.Filter(func(e ipc.LogEntry) bool { return e.Error != "" })
		if params.Limit > 0 && len(entries) > params.Limit {
			entries = entries[len(entries)-params.Limit:]
		}
	} else {
		entries = d.log.Tail(params.Limit)
	}
	if entries == nil {
		entries = []ipc.LogEntry{}
	}
	return ipc.SuccessResponse(ipc.LogData{
		Entries: entries,
		Count:   len(entries),
	})
}

// handleClear empties the request log.
func (d *Daemon) handleClear() ipc.Response {
	d.log.Clear()
	return ipc.SuccessResponse(map[string]string{
		"message": "log cleared",
	})
}

// handleShutdown signals the daemon to shut down.
func (d *Daemon) handleShutdown() ipc.Response {
	// Signal shutdown in a goroutine so we can return the response first.
	go d.triggerShutdown()
	return ipc.SuccessResponse(map[string]string{
		"message": "shutting down",
	})
}

func (d *Daemon) triggerShutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)
	})
}

// writePIDFile writes the daemon PID to a file.
func (d *Daemon) writePIDFile() error {
	dir := filepath.Dir(d.config.PIDPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	pid := strconv.Itoa(os.Getpid())
	return os.WriteFile(d.config.PIDPath, []byte(pid), 0600)
}

// removePIDFile removes the PID file.
func (d *Daemon) removePIDFile() {
	os.Remove(d.config.PIDPath)
}
