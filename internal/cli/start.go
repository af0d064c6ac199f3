package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/grantcarthew/htmlfmt/internal/daemon"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the formatting daemon",
	Long: `Starts the htmlfmt daemon in the foreground. Editors and "htmlfmt format
--daemon" send documents to it over a unix socket instead of starting a new
process for each one.

Without option flags the daemon uses the config file nearest to each
document. When stdin is a terminal an interactive prompt is available: type
markup to see it formatted, or a command such as status or log.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

var startLogSize int

func init() {
	startCmd.Flags().IntVar(&startLogSize, "log-size", daemon.DefaultLogSize, "Number of requests kept for the log command")
	addOptionFlags(startCmd.Flags())
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	if execFactory.IsDaemonRunning() {
		return outputError("daemon is already running")
	}

	opts, err := resolveOptions(cmd, "", true)
	if err != nil {
		return outputError(err.Error())
	}

	cfg := daemon.DefaultConfig()
	cfg.LogSize = startLogSize
	cfg.Options = opts
	cfg.Debug = Debug

	var d *daemon.Daemon
	cfg.CommandExecutor = func(args []string) (bool, error) {
		// Commands typed at the prompt reach this daemon without the socket.
		SetExecutorFactory(NewDirectExecutorFactory(d.Handler()))
		defer ResetExecutorFactory()
		return ExecuteArgs(args)
	}
	d = daemon.New(cfg)

	if JSONOutput {
		outputSuccess(map[string]any{
			"message": "daemon starting",
			"socket":  cfg.SocketPath,
		})
	} else {
		fmt.Fprintf(os.Stderr, "htmlfmt daemon listening on %s\n", cfg.SocketPath)
	}

	if err := d.Run(context.Background()); err != nil {
		return outputError(err.Error())
	}
	return nil
}
