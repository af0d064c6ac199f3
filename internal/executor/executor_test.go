package executor

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
)

func formatHandler(req ipc.Request) ipc.Response {
	if req.Cmd != ipc.CmdFormat {
		return ipc.ErrorResponse("unknown command: " + req.Cmd)
	}
	var p ipc.FormatParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return ipc.ErrorResponse(err.Error())
	}
	opts := htmlformat.DefaultOptions()
	if p.Options != nil {
		opts = *p.Options
	}
	out, err := htmlformat.Format(p.HTML, opts)
	if err != nil {
		return ipc.ErrorResponse(err.Error())
	}
	return ipc.SuccessResponse(ipc.FormatData{HTML: out, Changed: out != p.HTML})
}

func TestDirectExecutor_Execute(t *testing.T) {
	tests := []struct {
		name     string
		request  ipc.Request
		response ipc.Response
	}{
		{
			name:     "simple command",
			request:  ipc.Request{Cmd: "status"},
			response: ipc.SuccessResponse(map[string]bool{"running": true}),
		},
		{
			name:     "command with params",
			request:  ipc.Request{Cmd: "log", Params: json.RawMessage(`{"limit":5}`)},
			response: ipc.SuccessResponse(nil),
		},
		{
			name:     "error response",
			request:  ipc.Request{Cmd: "unknown"},
			response: ipc.ErrorResponse("unknown command"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := func(req ipc.Request) ipc.Response {
				if req.Cmd != tt.request.Cmd {
					t.Errorf("handler received cmd %q, want %q", req.Cmd, tt.request.Cmd)
				}
				if string(req.Params) != string(tt.request.Params) {
					t.Errorf("handler received params %s, want %s", req.Params, tt.request.Params)
				}
				return tt.response
			}

			exec := NewDirectExecutor(handler)
			resp, err := exec.Execute(tt.request)

			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if resp.OK != tt.response.OK {
				t.Errorf("Execute() OK = %v, want %v", resp.OK, tt.response.OK)
			}
			if resp.Error != tt.response.Error {
				t.Errorf("Execute() Error = %q, want %q", resp.Error, tt.response.Error)
			}
		})
	}
}

func TestDirectExecutor_Close(t *testing.T) {
	exec := NewDirectExecutor(func(req ipc.Request) ipc.Response {
		return ipc.SuccessResponse(nil)
	})

	if err := exec.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestFormat(t *testing.T) {
	exec := NewDirectExecutor(formatHandler)

	data, err := Format(exec, ipc.FormatParams{HTML: "<div><p>x</p></div>"})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if data.HTML != "<div>\n  <p>x</p>\n</div>" || !data.Changed {
		t.Errorf("Format() = %+v", data)
	}

	opts := htmlformat.DefaultOptions()
	opts.Indent = -2
	_, err = Format(exec, ipc.FormatParams{HTML: "<p>x</p>", Options: &opts})
	if err == nil || err.Error() != "invalid options: indent must be at least 0, got -2" {
		t.Errorf("Format() error = %v", err)
	}
}

func TestStatusAndLog(t *testing.T) {
	var gotLog ipc.LogParams
	exec := NewDirectExecutor(func(req ipc.Request) ipc.Response {
		switch req.Cmd {
		case ipc.CmdStatus:
			return ipc.SuccessResponse(ipc.StatusData{Running: true, PID: 7, Formatted: 3})
		case ipc.CmdLog:
			if err := json.Unmarshal(req.Params, &gotLog); err != nil {
				return ipc.ErrorResponse(err.Error())
			}
			return ipc.SuccessResponse(ipc.LogData{Entries: []ipc.LogEntry{{Path: "a.html"}}, Count: 1})
		}
		return ipc.ErrorResponse("unknown command: " + req.Cmd)
	})

	status, err := Status(exec)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.Running || status.PID != 7 || status.Formatted != 3 {
		t.Errorf("Status() = %+v", status)
	}

	data, err := Log(exec, ipc.LogParams{Limit: 5, Errors: true})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if data.Count != 1 || data.Entries[0].Path != "a.html" {
		t.Errorf("Log() = %+v", data)
	}
	if gotLog != (ipc.LogParams{Limit: 5, Errors: true}) {
		t.Errorf("log params = %+v", gotLog)
	}

	if _, err := Status(failingExecutor{}); err == nil || err.Error() != "connection refused" {
		t.Errorf("Status() error = %v, want transport error", err)
	}
}

type failingExecutor struct{}

func (failingExecutor) Execute(ipc.Request) (ipc.Response, error) {
	return ipc.Response{}, errors.New("connection refused")
}

func (failingExecutor) Close() error { return nil }

func TestFormat_TransportError(t *testing.T) {
	_, err := Format(failingExecutor{}, ipc.FormatParams{HTML: "<p>"})
	if err == nil || err.Error() != "connection refused" {
		t.Errorf("Format() error = %v, want transport error", err)
	}
}

func TestIPCExecutor(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "htmlfmt.sock")

	if _, err := NewIPCExecutorPath(socketPath); !errors.Is(err, ipc.ErrDaemonNotRunning) {
		t.Fatalf("NewIPCExecutorPath() without daemon = %v, want ErrDaemonNotRunning", err)
	}

	server, err := ipc.NewServer(socketPath, formatHandler)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = server.Serve(ctx) }()
	defer server.Close()

	exec, err := NewIPCExecutorPath(socketPath)
	if err != nil {
		t.Fatalf("NewIPCExecutorPath() error = %v", err)
	}
	defer exec.Close()

	data, err := Format(exec, ipc.FormatParams{HTML: "<ul><li>a</li></ul>"})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if data.HTML != "<ul>\n  <li>a</li>\n</ul>" {
		t.Errorf("Format() HTML = %q", data.HTML)
	}
}
