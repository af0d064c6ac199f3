// Package executor abstracts how CLI commands reach a formatter: through
// the daemon's socket, or by calling a handler in the same process.
package executor

import "github.com/grantcarthew/htmlfmt/internal/ipc"

// Executor executes commands and returns responses.
// Implementations handle the transport mechanism (IPC, direct call).
type Executor interface {
	Execute(req ipc.Request) (ipc.Response, error)
	Close() error
}

// Format sends a format request through e and decodes the result.
func Format(e Executor, params ipc.FormatParams) (ipc.FormatData, error) {
	return ipc.Call[ipc.FormatData](e.Execute, ipc.CmdFormat, params)
}

// Status asks e for the daemon status.
func Status(e Executor) (ipc.StatusData, error) {
	return ipc.Call[ipc.StatusData](e.Execute, ipc.CmdStatus, nil)
}

// Log fetches the daemon's request log through e.
func Log(e Executor, params ipc.LogParams) (ipc.LogData, error) {
	return ipc.Call[ipc.LogData](e.Execute, ipc.CmdLog, params)
}
