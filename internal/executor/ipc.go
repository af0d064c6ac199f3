package executor

import "github.com/grantcarthew/htmlfmt/internal/ipc"

// IPCExecutor executes commands via Unix socket IPC.
type IPCExecutor struct {
	client *ipc.Client
}

// NewIPCExecutor creates a new IPC executor connected to the daemon.
func NewIPCExecutor() (*IPCExecutor, error) {
	return NewIPCExecutorPath(ipc.DefaultSocketPath())
}

// NewIPCExecutorPath creates a new IPC executor connected to a specific socket path.
func NewIPCExecutorPath(socketPath string) (*IPCExecutor, error) {
	client, err := ipc.DialPath(socketPath)
	if err != nil {
		return nil, err
	}
	return &IPCExecutor{client: client}, nil
}

// Execute sends a request via IPC and returns the response.
func (e *IPCExecutor) Execute(req ipc.Request) (ipc.Response, error) {
	return e.client.Send(req)
}

// Close closes the IPC connection.
func (e *IPCExecutor) Close() error {
	return e.client.Close()
}
