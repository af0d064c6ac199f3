package cli

import (
	"context"

	"github.com/grantcarthew/htmlfmt/internal/daemon"
	"github.com/grantcarthew/htmlfmt/internal/executor"
	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
	"github.com/grantcarthew/htmlfmt/internal/remote"
)

// ExecutorFactory creates executors and checks daemon status.
type ExecutorFactory interface {
	NewExecutor() (executor.Executor, error)
	IsDaemonRunning() bool
}

// defaultFactory uses IPC executor.
type defaultFactory struct{}

func (f defaultFactory) NewExecutor() (executor.Executor, error) {
	return executor.NewIPCExecutor()
}

func (f defaultFactory) IsDaemonRunning() bool {
	return ipc.IsDaemonRunning()
}

// directFactory hands out executors that call an in-process handler.
type directFactory struct {
	handler ipc.Handler
}

// NewDirectExecutorFactory returns a factory whose executors call handler
// directly. The REPL inside "start" uses it so commands skip the socket.
func NewDirectExecutorFactory(handler ipc.Handler) ExecutorFactory {
	return directFactory{handler: handler}
}

func (f directFactory) NewExecutor() (executor.Executor, error) {
	return executor.NewDirectExecutor(f.handler), nil
}

func (f directFactory) IsDaemonRunning() bool {
	return true
}

// execFactory is the package-level factory, replaceable for testing.
var execFactory ExecutorFactory = defaultFactory{}

// SetExecutorFactory sets the executor factory (for testing).
func SetExecutorFactory(f ExecutorFactory) {
	execFactory = f
}

// ResetExecutorFactory resets to the default factory.
func ResetExecutorFactory() {
	execFactory = defaultFactory{}
}

// formatter formats one document at a time for format, check, and watch.
type formatter interface {
	Format(html, path string) (ipc.FormatData, error)
	Close() error
}

// target selects where formatting happens.
type target struct {
	daemon bool   // Use the running daemon
	remote string // WebSocket URL of a serve instance
}

// newFormatter returns a formatter for t. A nil opts leaves option
// resolution to the formatter, which looks up the config for each path.
func newFormatter(t target, opts *htmlformat.Options) (formatter, error) {
	switch {
	case t.remote != "":
		debugf("Dialing %s", t.remote)
		client, err := remote.Dial(context.Background(), t.remote)
		if err != nil {
			return nil, err
		}
		return &remoteFormatter{client: client, opts: opts}, nil

	case t.daemon:
		if !execFactory.IsDaemonRunning() {
			return nil, ipc.ErrDaemonNotRunning
		}
		exec, err := execFactory.NewExecutor()
		if err != nil {
			return nil, err
		}
		return &execFormatter{exec: exec, opts: opts}, nil

	default:
		// The options go to the in-process daemon as its fixed options, so
		// kinds from a --config file survive.
		cfg := daemon.DefaultConfig()
		cfg.LogSize = 1
		cfg.Options = opts
		cfg.Debug = Debug
		return &execFormatter{exec: executor.NewDirectExecutor(daemon.New(cfg).Handler())}, nil
	}
}

// execFormatter formats through an executor.
type execFormatter struct {
	exec executor.Executor
	opts *htmlformat.Options
}

func (f *execFormatter) Format(html, path string) (ipc.FormatData, error) {
	return executor.Format(f.exec, ipc.FormatParams{HTML: html, Path: path, Options: f.opts})
}

func (f *execFormatter) Close() error {
	return f.exec.Close()
}

// remoteFormatter formats over a WebSocket connection to "htmlfmt serve".
type remoteFormatter struct {
	client *remote.Client
	opts   *htmlformat.Options
}

func (f *remoteFormatter) Format(html, path string) (ipc.FormatData, error) {
	res, err := f.client.Format(html, path, f.opts)
	if err != nil {
		return ipc.FormatData{}, err
	}
	return ipc.FormatData{HTML: res.HTML, Changed: res.Changed}, nil
}

func (f *remoteFormatter) Close() error {
	return f.client.Close()
}
