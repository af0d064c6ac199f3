package ipc

import (
	"encoding/json"
	"log"

	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
)

// Commands understood by the daemon.
const (
	CmdFormat   = "format"
	CmdStatus   = "status"
	CmdLog      = "log"
	CmdClear    = "clear"
	CmdShutdown = "shutdown"
)

// CommandExecutor executes CLI commands with arguments.
// Returns true if the command was recognized, false otherwise.
// Used by the REPL to execute commands via Cobra.
type CommandExecutor func(args []string) (recognized bool, err error)

// Request represents a command sent from the CLI to the daemon.
type Request struct {
	Cmd    string          `json:"cmd"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents a response sent from the daemon to the CLI.
type Response struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// FormatParams represents parameters for the "format" command.
// Without Options the daemon uses the config file that applies to Path,
// or its own defaults when Path is empty.
type FormatParams struct {
	HTML    string              `json:"html"`
	Path    string              `json:"path,omitempty"`
	Options *htmlformat.Options `json:"options,omitempty"`
}

// FormatData is the response data for the "format" command.
type FormatData struct {
	HTML    string `json:"html"`
	Changed bool   `json:"changed"`
}

// StatusData is the response data for the "status" command.
type StatusData struct {
	Running   bool   `json:"running"`
	PID       int    `json:"pid,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
	Formatted int64  `json:"formatted"`
	Failed    int64  `json:"failed"`
	Socket    string `json:"socket,omitempty"`
}

// LogEntry records one format request handled by the daemon.
type LogEntry struct {
	Path      string  `json:"path,omitempty"`
	InBytes   int     `json:"inBytes"`
	OutBytes  int     `json:"outBytes"`
	Changed   bool    `json:"changed"`
	Duration  float64 `json:"duration"` // Milliseconds
	Error     string  `json:"error,omitempty"`
	Timestamp int64   `json:"timestamp"` // Unix milliseconds
}

// LogParams represents parameters for the "log" command.
type LogParams struct {
	Limit  int  `json:"limit,omitempty"`  // Newest entries only; 0 returns all
	Errors bool `json:"errors,omitempty"` // Failed requests only
}

// LogData is the response data for the "log" command.
type LogData struct {
	Entries []LogEntry `json:"entries"`
	Count   int        `json:"count"`
}

// SuccessResponse creates a successful response with the given data.
func SuccessResponse(data any) Response {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			log.Printf("ipc: failed to marshal response data: %v", err)
			return ErrorResponse("internal error: failed to marshal response")
		}
	}
	return Response{OK: true, Data: raw}
}

// ErrorResponse creates an error response with the given message.
func ErrorResponse(msg string) Response {
	return Response{OK: false, Error: msg}
}
